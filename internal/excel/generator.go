package excel

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/marketplace-payments/internal/model"
)

const (
	summarySheet = "Summary"
	jobsSheet    = "Unpaid jobs"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(export model.UnpaidJobsExport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if err := g.writeSummary(file, export); err != nil {
		return nil, err
	}

	if _, err := file.NewSheet(jobsSheet); err != nil {
		return nil, err
	}
	if err := g.writeJobs(file, export); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, export model.UnpaidJobsExport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(summarySheet, cell, value)
	}

	set("A1", "Profile")
	set("B1", export.Owner.FullName())
	set("A2", "Profile type")
	set("B2", string(export.Owner.Type))
	set("A3", "Unpaid jobs")
	set("B3", len(export.Jobs))
	set("A4", "Total outstanding")
	set("B4", totalPrice(export.Jobs).StringFixed(2))
	set("A5", "Generated at")
	set("B5", time.Now().UTC().Format("2006-01-02 15:04:05"))

	return file.SetColWidth(summarySheet, "A", "B", 24)
}

func (g *Generator) writeJobs(file *excelize.File, export model.UnpaidJobsExport) error {
	headers := []string{"Job", "Contract", "Client", "Contractor", "Description", "Price", "Created"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(jobsSheet, cell, header); err != nil {
			return err
		}
	}

	for i, job := range export.Jobs {
		row := i + 2
		var clientID, contractorID int64
		if job.Contract != nil {
			clientID = job.Contract.ClientID
			contractorID = job.Contract.ContractorID
		}
		values := []interface{}{
			job.ID,
			job.ContractID,
			clientID,
			contractorID,
			job.Description,
			job.Price.InexactFloat64(),
			formatDateTime(job.CreatedAt),
		}
		if err := file.SetSheetRow(jobsSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
	}

	_ = file.SetColWidth(jobsSheet, "A", "D", 12)
	_ = file.SetColWidth(jobsSheet, "E", "E", 48)
	_ = file.SetColWidth(jobsSheet, "F", "G", 20)
	return nil
}

func totalPrice(jobs []model.Job) decimal.Decimal {
	total := decimal.Zero
	for _, job := range jobs {
		total = total.Add(job.Price)
	}
	return total
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
