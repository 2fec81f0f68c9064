// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides a dedicated audit trail for prediction lifecycle
// events so generated picks can be reviewed after the fact.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogPredictionGenerated records a validated prediction being published.
func (al *AuditLogger) LogPredictionGenerated(predictionID, gameID, sport string, consensus float64, legCount int, generatedAt time.Time) {
	al.WithFields(logrus.Fields{
		"prediction_id": predictionID,
		"game_id":       gameID,
		"sport":         sport,
		"consensus":     consensus,
		"leg_count":     legCount,
		"generated_at":  generatedAt.Unix(),
	}).Info("Prediction generated")
}

// LogPredictionRejected records a prediction that failed validation.
func (al *AuditLogger) LogPredictionRejected(gameID, sport string, errors []string) {
	al.WithFields(logrus.Fields{
		"game_id": gameID,
		"sport":   sport,
		"errors":  errors,
	}).Warn("Prediction rejected")
}

// LogCacheCleared records a manual cache flush.
func (al *AuditLogger) LogCacheCleared(entriesDropped int, triggeredBy string) {
	al.WithFields(logrus.Fields{
		"entries_dropped": entriesDropped,
		"triggered_by":    triggeredBy,
	}).Info("Cache cleared")
}

// LogSnapshotServed records a batch answered from persisted data because
// the odds source was unavailable.
func (al *AuditLogger) LogSnapshotServed(sport string, predictionCount int, reason string) {
	al.WithFields(logrus.Fields{
		"sport":            sport,
		"prediction_count": predictionCount,
		"reason":           reason,
	}).Warn("Served persisted snapshot")
}
