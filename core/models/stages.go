package models

// ProcessStage represents the pipeline position of a CURP document-processing job
type ProcessStage string

const (
	StagePending         ProcessStage = "pending"
	StageOutlookCreation ProcessStage = "outlook_creation"
	StageIMSSProcessing  ProcessStage = "imss_processing"
	StageEmailMonitoring ProcessStage = "email_monitoring"
	StagePDFReady        ProcessStage = "pdf_ready"
	StageError           ProcessStage = "error"
)

// Status implements Stage
func (s ProcessStage) Status() (OverallStatus, bool) {
	switch s {
	case StagePending:
		return StatusPending, true
	case StageOutlookCreation, StageIMSSProcessing, StageEmailMonitoring:
		return StatusInProgress, true
	case StagePDFReady:
		return StatusCompleted, true
	case StageError:
		return StatusFailed, true
	}
	return StatusFailed, false
}

// Label implements Stage
func (s ProcessStage) Label() string {
	switch s {
	case StagePending:
		return "Pending"
	case StageOutlookCreation:
		return "Creating Account"
	case StageIMSSProcessing:
		return "IMSS Processing"
	case StageEmailMonitoring:
		return "Monitoring Email"
	case StagePDFReady:
		return "PDF Ready"
	case StageError:
		return "Error"
	}
	return "Unknown"
}

// AccountStage represents the state of a bulk account-creation job
type AccountStage string

const (
	AccountPending AccountStage = "pending"
	AccountSuccess AccountStage = "success"
	AccountFailed  AccountStage = "failed"
)

// Status implements Stage
func (s AccountStage) Status() (OverallStatus, bool) {
	switch s {
	case AccountPending:
		return StatusPending, true
	case AccountSuccess:
		return StatusCompleted, true
	case AccountFailed:
		return StatusFailed, true
	}
	return StatusFailed, false
}

// Label implements Stage
func (s AccountStage) Label() string {
	switch s {
	case AccountPending:
		return "Pending"
	case AccountSuccess:
		return "Success"
	case AccountFailed:
		return "Failed"
	}
	return "Unknown"
}

// AccountResult holds the credentials produced by an account-creation job
type AccountResult struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	BirthMonth string `json:"birth_month"`
	BirthDay   string `json:"birth_day"`
	BirthYear  string `json:"birth_year"`
}

// CURPResult holds the demographic fields of a CURP processing job
type CURPResult struct {
	CURPID      string `json:"curp_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
	Email       string `json:"email,omitempty"`
}

// MergeResult keeps every field already set in prev and fills in the ones
// still empty from r. conflict reports a populated field sent with a
// different value.
func (r AccountResult) MergeResult(prev AccountResult) (AccountResult, bool) {
	var conflict bool
	return AccountResult{
		FirstName:  keepField(prev.FirstName, r.FirstName, &conflict),
		LastName:   keepField(prev.LastName, r.LastName, &conflict),
		Email:      keepField(prev.Email, r.Email, &conflict),
		Password:   keepField(prev.Password, r.Password, &conflict),
		BirthMonth: keepField(prev.BirthMonth, r.BirthMonth, &conflict),
		BirthDay:   keepField(prev.BirthDay, r.BirthDay, &conflict),
		BirthYear:  keepField(prev.BirthYear, r.BirthYear, &conflict),
	}, conflict
}

// MergeResult keeps every field already set in prev and fills in the ones
// still empty from r. The email arrives once the mailbox has been created.
func (r CURPResult) MergeResult(prev CURPResult) (CURPResult, bool) {
	var conflict bool
	return CURPResult{
		CURPID:      keepField(prev.CURPID, r.CURPID, &conflict),
		FirstName:   keepField(prev.FirstName, r.FirstName, &conflict),
		LastName:    keepField(prev.LastName, r.LastName, &conflict),
		DateOfBirth: keepField(prev.DateOfBirth, r.DateOfBirth, &conflict),
		Email:       keepField(prev.Email, r.Email, &conflict),
	}, conflict
}

func keepField(prev, next string, conflict *bool) string {
	if prev == "" {
		return next
	}
	if next != "" && next != prev {
		*conflict = true
	}
	return prev
}

// AccountJob is a job of the account-creation variant
type AccountJob = Job[AccountStage, AccountResult]

// ProcessJob is a job of the CURP document-processing variant
type ProcessJob = Job[ProcessStage, CURPResult]
