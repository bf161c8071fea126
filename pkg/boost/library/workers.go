package library

// Walker worker limits.
const (
	// maxWorkers caps the walker pool. Game libraries live on one or two
	// drives, so more workers only add seek contention.
	maxWorkers = 16

	// minWorkers is the minimum number of walker workers.
	minWorkers = 2
)

// Workers returns the walker pool size for cpus logical CPUs. An override
// greater than zero wins but is still capped.
func Workers(cpus, override int) int {
	if override > 0 {
		return min(override, maxWorkers)
	}
	return min(max(cpus, minWorkers), maxWorkers)
}
