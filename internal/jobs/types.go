package jobs

type JobType string

const (
	JobAccountWelcome       JobType = "account.welcome"
	JobPoolJoinConfirmation JobType = "pool.join_confirmation"
)

// IsValid checks the job type is a known constant.
func (t JobType) IsValid() bool {
	switch t {
	case JobAccountWelcome, JobPoolJoinConfirmation:
		return true
	default:
		return false
	}
}
