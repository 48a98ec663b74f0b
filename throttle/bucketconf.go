package throttle

import "time"

// BucketConf - one entry of the "throttle" section of config/.core.json
type BucketConf struct {
	Burst     int `json:"burst"`      // maximum number of tokens in the bucket
	Increment int `json:"increment"`  // how many tokens to add each period
	PeriodSec int `json:"period_sec"` // how often to add Increment
}

func (c *BucketConf) Period() time.Duration {
	if c.PeriodSec <= 0 {
		return time.Second
	}
	return time.Duration(c.PeriodSec) * time.Second
}
