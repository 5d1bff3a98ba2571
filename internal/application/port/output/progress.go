package output

import "mpc-refresher/internal/domain/entity"

// ProgressPort prints the plain status lines a user watches while the run
// is in progress. It is separate from LoggerPort, which writes the log file.
type ProgressPort interface {
	Status(msg string)
	Refreshing(current, total int, id entity.ProjectID)
	Retrying(id entity.ProjectID, err error)
	Done(result *entity.RefreshResult)
}
