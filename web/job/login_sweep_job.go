package job

import (
	"github.com/inkwell-blog/inkwell/logger"
	"github.com/inkwell-blog/inkwell/web/service"
)

// LoginSweepJob forgets failed-login records that no longer matter.
type LoginSweepJob struct {
	limiter *service.LoginLimiter
}

func NewLoginSweepJob(limiter *service.LoginLimiter) *LoginSweepJob {
	return &LoginSweepJob{limiter: limiter}
}

func (j *LoginSweepJob) Run() {
	if removed := j.limiter.Sweep(); removed > 0 {
		logger.Debugf("login sweep removed %d entries", removed)
	}
}
