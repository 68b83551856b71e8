package models

import "time"

// Follow is a directed edge in the social graph. The composite primary
// key makes the (follower, followed) pair unique, so re-following is
// an upsert no-op rather than a duplicate row.
type Follow struct {
	FollowerID uint `gorm:"primaryKey;autoIncrement:false"`
	FollowedID uint `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt  time.Time
}
