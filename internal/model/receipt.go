package model

// PaymentReceipt is everything needed to render a receipt for a paid job.
type PaymentReceipt struct {
	Job        Job
	Contract   Contract
	Client     Profile
	Contractor Profile
}

// UnpaidJobsExport is the unpaid-jobs listing of one profile.
type UnpaidJobsExport struct {
	Owner Profile
	Jobs  []Job
}
