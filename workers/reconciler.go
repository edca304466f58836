package workers

import (
	"log"
	"time"

	"quliao-chat-system/game"
	"quliao-chat-system/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// StartMatchReconciler runs a periodic sweep over match records stuck in a
// non-terminal status. A record with no live session and an age past the
// threshold was orphaned (process restart mid-match, or the finish-time
// status write failed) and gets closed out here. Returns the scheduler so
// the caller can shut it down.
func StartMatchReconciler(db *gorm.DB, dir *game.Directory) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			reconcileStaleMatches(db, dir)
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}

func reconcileStaleMatches(db *gorm.DB, dir *game.Directory) {
	live := make(map[string]struct{})
	for _, code := range dir.LiveCodes() {
		live[code] = struct{}{}
	}

	cutoff := time.Now().Add(-1 * time.Hour)
	var stale []models.Match
	err := db.Where("status <> ? AND created_at < ?", game.StatusFinished, cutoff).
		Find(&stale).Error
	if err != nil {
		log.Printf("[RECONCILER] stale match query failed: %v", err)
		return
	}

	closed := 0
	for _, m := range stale {
		if _, ok := live[m.RoomCode]; ok {
			continue
		}
		if err := db.Model(&models.Match{}).Where("id = ?", m.ID).
			Update("status", game.StatusFinished).Error; err != nil {
			log.Printf("[RECONCILER] failed to close match %s: %v", m.RoomCode, err)
			continue
		}
		closed++
	}
	if closed > 0 {
		log.Printf("[RECONCILER] closed %d orphaned match records", closed)
	}
}
