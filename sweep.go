package main

import (
	"time"

	"go.uber.org/zap"
)

// sweepInterval is fixed; the sweep only targets rows that are already
// expired, so a benign race with concurrent logins is acceptable.
const sweepInterval = 24 * time.Hour

// startSweeper runs the refresh-token expiry sweep once immediately and then
// on a daily ticker until stop is closed.
func startSweeper(svc *SessionService, stop <-chan struct{}) {
	run := func() {
		n, err := svc.SweepExpiredRefreshTokens(time.Now().UnixMilli())
		if err != nil {
			logger.Warn("refresh token sweep failed", zap.Error(err))
			return
		}
		sweepDeletedTotal.Add(float64(n))
		if n > 0 {
			logger.Info("refresh token sweep finished", zap.Int64("deleted", n))
		}
	}
	go func() {
		run()
		t := time.NewTicker(sweepInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				run()
			case <-stop:
				return
			}
		}
	}()
}
