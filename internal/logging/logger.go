package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the logging level
type LogLevel string

const (
	// LogLevelQuiet suppresses all output except critical errors
	LogLevelQuiet LogLevel = "quiet"
	// LogLevelNormal shows standard operational messages
	LogLevelNormal LogLevel = "normal"
	// LogLevelVerbose shows detailed operational information
	LogLevelVerbose LogLevel = "verbose"
	// LogLevelDebug shows all debug information
	LogLevelDebug LogLevel = "debug"
)

// Logger provides structured logging capabilities
type Logger struct {
	logger *logrus.Logger
	level  LogLevel
}

// Config holds logger configuration
type Config struct {
	Level      LogLevel
	Output     io.Writer
	Format     string // "text" or "json"
	ShowCaller bool
	LogFile    string
}

// NewLogger creates a new logger with the specified configuration
func NewLogger(config Config) (*Logger, error) {
	logger := logrus.New()

	if config.Output != nil {
		logger.SetOutput(config.Output)
	} else {
		logger.SetOutput(os.Stdout)
	}

	switch config.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			DisableColors:   false,
		})
	}

	switch config.Level {
	case LogLevelQuiet:
		logger.SetLevel(logrus.ErrorLevel)
	case LogLevelNormal:
		logger.SetLevel(logrus.InfoLevel)
	case LogLevelVerbose:
		logger.SetLevel(logrus.DebugLevel)
	case LogLevelDebug:
		logger.SetLevel(logrus.TraceLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if config.ShowCaller {
		logger.SetReportCaller(true)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				filename := filepath.Base(f.File)
				return fmt.Sprintf("%s()", f.Function), fmt.Sprintf("%s:%d", filename, f.Line)
			},
		})
	}

	if config.LogFile != "" {
		file, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", config.LogFile, err)
		}

		if config.Output == nil {
			logger.SetOutput(io.MultiWriter(os.Stdout, file))
		} else {
			logger.SetOutput(io.MultiWriter(config.Output, file))
		}
	}

	return &Logger{
		logger: logger,
		level:  config.Level,
	}, nil
}

// NewDefaultLogger creates a logger with default configuration
func NewDefaultLogger() *Logger {
	config := Config{
		Level:      LogLevelNormal,
		Output:     os.Stdout,
		Format:     "text",
		ShowCaller: false,
	}

	logger, _ := NewLogger(config)
	return logger
}

// WithFields returns a logger entry with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.logger.WithFields(fields)
}

// WithField returns a logger entry with a single additional field
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.logger.WithField(key, value)
}

// Backup operation logging methods

// LogBackupCreated logs a completed backup creation
func (l *Logger) LogBackupCreated(backupID string, itemCount int, size int64, duration time.Duration) {
	l.logger.WithFields(logrus.Fields{
		"operation":  "backup_create",
		"backup_id":  backupID,
		"item_count": itemCount,
		"size":       size,
		"duration":   duration.String(),
	}).Info("Backup created")
}

// LogBackupFailed logs a failed backup attempt
func (l *Logger) LogBackupFailed(backupType string, err error, duration time.Duration) {
	l.logger.WithFields(logrus.Fields{
		"operation":   "backup_create",
		"backup_type": backupType,
		"duration":    duration.String(),
		"error":       err.Error(),
	}).Error("Backup failed")
}

// LogRestoreCompleted logs the outcome of a restore operation
func (l *Logger) LogRestoreCompleted(backupID string, restored, failed int, duration time.Duration) {
	fields := logrus.Fields{
		"operation":      "restore",
		"backup_id":      backupID,
		"restored_items": restored,
		"failed_items":   failed,
		"duration":       duration.String(),
	}

	if failed > 0 {
		l.logger.WithFields(fields).Warn("Restore completed with failures")
	} else {
		l.logger.WithFields(fields).Info("Restore completed")
	}
}

// LogRetentionSweep logs the outcome of a retention enforcement pass
func (l *Logger) LogRetentionSweep(evaluated, evicted int, errors []string) {
	fields := logrus.Fields{
		"operation": "retention_sweep",
		"evaluated": evaluated,
		"evicted":   evicted,
	}

	if len(errors) > 0 {
		fields["errors"] = errors
		l.logger.WithFields(fields).Warn("Retention sweep completed with errors")
	} else {
		l.logger.WithFields(fields).Info("Retention sweep completed")
	}
}

// LogCloudUpload logs a cloud upload attempt
func (l *Logger) LogCloudUpload(backupID, transport string, success bool, err error) {
	fields := logrus.Fields{
		"operation": "cloud_upload",
		"backup_id": backupID,
		"transport": transport,
		"success":   success,
	}

	if success {
		l.logger.WithFields(fields).Info("Cloud upload completed")
	} else {
		if err != nil {
			fields["error"] = err.Error()
		}
		l.logger.WithFields(fields).Warn("Cloud upload failed")
	}
}

// Generic logging methods

// Info logs an informational message
func (l *Logger) Info(message string) {
	l.logger.Info(message)
}

// Debug logs a debug message
func (l *Logger) Debug(message string) {
	l.logger.Debug(message)
}

// Warn logs a warning message
func (l *Logger) Warn(message string) {
	l.logger.Warn(message)
}

// Error logs an error message
func (l *Logger) Error(message string) {
	l.logger.Error(message)
}

// Infof logs a formatted informational message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// SetLevel updates the log level
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
	switch level {
	case LogLevelQuiet:
		l.logger.SetLevel(logrus.ErrorLevel)
	case LogLevelNormal:
		l.logger.SetLevel(logrus.InfoLevel)
	case LogLevelVerbose:
		l.logger.SetLevel(logrus.DebugLevel)
	case LogLevelDebug:
		l.logger.SetLevel(logrus.TraceLevel)
	}
}
