package models

import (
	"time"
)

// CleanupReport отчёт об очистке старых записей.
// При dry-run заполняется RecordsToDelete, при реальном удалении — RecordsDeleted.
// Даты описывают диапазон записей старше cutoff, снятый ДО удаления.
type CleanupReport struct {
	DryRun          bool       `json:"dry_run"`
	CutoffDate      time.Time  `json:"cutoff_date"`
	RecordCount     int64      `json:"record_count"`
	EarliestDate    *time.Time `json:"earliest_date,omitempty"`
	LatestDate      *time.Time `json:"latest_date,omitempty"`
	RecordsToDelete *int64     `json:"records_to_delete,omitempty"`
	RecordsDeleted  *int64     `json:"records_deleted,omitempty"`
}

// MonthBucket статистика посещений за один календарный месяц
type MonthBucket struct {
	Month              string `json:"month"` // YYYY-MM
	Count              int64  `json:"count"`
	EligibleForCleanup bool   `json:"eligible_for_cleanup"`
}

// CleanupStats сводка хранилища для выбора окна ретенции
type CleanupStats struct {
	TotalRecords int64         `json:"total_records"`
	EarliestDate *time.Time    `json:"earliest_date,omitempty"`
	LatestDate   *time.Time    `json:"latest_date,omitempty"`
	Months       []MonthBucket `json:"months"`
}
