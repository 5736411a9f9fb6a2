package services

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Access log actions
const (
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionCreateTenant   = "create_tenant"
	ActionCloseTable     = "close_table"
	ActionCreateUser     = "create_user"
	ActionDeactivateUser = "deactivate_user"
)

// AccessLogMetrics counts what happened to recorded entries.
type AccessLogMetrics struct {
	Written int64
	Dropped int64
	Failed  int64
}

// AccessLogger writes access log entries from a background goroutine. Record
// never blocks: entries that do not fit the queue are dropped.
type AccessLogger struct {
	db      *gorm.DB
	queue   chan models.AccessLog
	now     func() time.Time
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	written atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

func NewAccessLogger(db *gorm.DB, buffer int) *AccessLogger {
	if buffer <= 0 {
		buffer = 256
	}
	return &AccessLogger{
		db:    db,
		queue: make(chan models.AccessLog, buffer),
		now:   time.Now,
	}
}

// Start launches the writer goroutine.
func (l *AccessLogger) Start() {
	l.wg.Add(1)
	go l.run()
	utils.InfoLogger.Info("Access logger started")
}

func (l *AccessLogger) run() {
	defer l.wg.Done()
	for entry := range l.queue {
		if err := l.db.Create(&entry).Error; err != nil {
			l.failed.Add(1)
			utils.ErrorLogger.WithError(err).WithField("action", entry.Action).Error("Failed to write access log")
			continue
		}
		l.written.Add(1)
	}
}

// Record queues one entry for sess. A nil logger is a no-op.
func (l *AccessLogger) Record(sess models.SessionContext, action, ip string) {
	if l == nil {
		return
	}

	entry := models.AccessLog{Action: action, IP: ip, CreatedAt: l.now()}
	if sess.UserID != 0 {
		userID := sess.UserID
		entry.UserID = &userID
	}
	if sess.TenantID != 0 {
		tenantID := sess.TenantID
		entry.TenantID = &tenantID
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	select {
	case l.queue <- entry:
	default:
		l.dropped.Add(1)
		utils.ErrorLogger.WithFields(logrus.Fields{
			"action":  action,
			"user_id": sess.UserID,
		}).Warn("Access log queue full, dropping entry")
	}
}

// Stop flushes queued entries and stops the writer.
func (l *AccessLogger) Stop() {
	if l == nil {
		return
	}
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()
	l.wg.Wait()
}

func (l *AccessLogger) Metrics() AccessLogMetrics {
	return AccessLogMetrics{
		Written: l.written.Load(),
		Dropped: l.dropped.Load(),
		Failed:  l.failed.Load(),
	}
}
