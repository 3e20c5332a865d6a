package dto

// WorkloadMethod labels how a teacher's payroll estimate was computed.
type WorkloadMethod string

const (
	WorkloadMethodHourly     WorkloadMethod = "hourly"
	WorkloadMethodPerSession WorkloadMethod = "perSession"
	// WorkloadMethodNone marks teachers with no configured rate, so a zero
	// estimate is never mistaken for a genuinely zero-cost teacher.
	WorkloadMethodNone WorkloadMethod = "none"
)

// TeacherWorkloadRow is one teacher's aggregated workload and payroll
// estimate. AmountCents is exact; Amount is the decimal currency rendering
// produced only at this output boundary.
type TeacherWorkloadRow struct {
	TeacherID    int64          `json:"teacherId"`
	Email        string         `json:"email"`
	Name         *string        `json:"name"`
	SessionCount int64          `json:"sessionCount"`
	TotalMinutes int64          `json:"totalMinutes"`
	Method       WorkloadMethod `json:"method"`
	AmountCents  int64          `json:"amountCents"`
	Amount       float64        `json:"amount"`
}

// WorkloadResponse is the admin workload report.
type WorkloadResponse struct {
	Teachers []TeacherWorkloadRow `json:"teachers"`
}
