package job

import (
	"github.com/inkwell-blog/inkwell/logger"
	"github.com/inkwell-blog/inkwell/util/common"

	"github.com/shirou/gopsutil/v4/mem"
)

// CheckMemJob warns when host memory use crosses a percentage threshold.
type CheckMemJob struct {
	threshold float64
	usage     func() (*mem.VirtualMemoryStat, error)
}

func NewCheckMemJob(threshold float64) *CheckMemJob {
	return &CheckMemJob{
		threshold: threshold,
		usage:     mem.VirtualMemory,
	}
}

// Run reports whether the threshold was crossed.
func (j *CheckMemJob) Run() {
	j.check()
}

func (j *CheckMemJob) check() bool {
	memInfo, err := j.usage()
	if err != nil {
		logger.Error("CheckMemJob -- get virtual memory failed:", err)
		return false
	}
	if memInfo.UsedPercent < j.threshold {
		return false
	}
	logger.Warningf("CheckMemJob -- memory use %.1f%% (%s of %s) above %.0f%%",
		memInfo.UsedPercent, common.FormatBytes(memInfo.Used), common.FormatBytes(memInfo.Total), j.threshold)
	return true
}
