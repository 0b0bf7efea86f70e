package models

import (
	"fmt"
	"time"
)

// MaxHistoryLimit наибольшее число записей в ответах get_status и get_posture
const MaxHistoryLimit = 10

// ClampHistoryLimit приводит запрошенный размер выборки к диапазону [1, MaxHistoryLimit];
// нулевое или отрицательное значение означает "по умолчанию"
func ClampHistoryLimit(limit int) int {
	if limit <= 0 || limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

// StatusCode грубый уровень тревоги
type StatusCode int

// Уровни статуса
const (
	StatusNormal    StatusCode = 1
	StatusCaution   StatusCode = 2
	StatusEmergency StatusCode = 3
)

// StatusCodes перечисляет допустимые коды статуса
var StatusCodes = []StatusCode{StatusNormal, StatusCaution, StatusEmergency}

// Valid сообщает, входит ли код в допустимый набор
func (s StatusCode) Valid() bool {
	return s >= StatusNormal && s <= StatusEmergency
}

// String возвращает текстовую метку статуса
func (s StatusCode) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusCaution:
		return "caution"
	case StatusEmergency:
		return "emergency"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// PostureCode код классификации позы, от 0 до 6
type PostureCode int

// Границы кодов позы
const (
	PostureMin PostureCode = 0
	PostureMax PostureCode = 6
)

// Valid сообщает, входит ли код в допустимый диапазон
func (p PostureCode) Valid() bool {
	return p >= PostureMin && p <= PostureMax
}

// StatusRecord неизменяемая запись журнала статусов
type StatusRecord struct {
	ID            uint       `gorm:"primaryKey" json:"-"`
	UserUniqueNum uint       `gorm:"column:user_unique_num;not null;index:idx_status_user_created,priority:1" json:"-"`
	Status        StatusCode `gorm:"column:status;not null" json:"status"`
	CreatedAt     time.Time  `gorm:"column:created_at;not null;index:idx_status_user_created,priority:2" json:"timestamp"`
}

// TableName задает имя таблицы
func (StatusRecord) TableName() string {
	return "status_records"
}

// PostureRecord неизменяемая запись журнала поз
type PostureRecord struct {
	ID            uint        `gorm:"primaryKey" json:"-"`
	UserUniqueNum uint        `gorm:"column:user_unique_num;not null;index:idx_posture_user_created,priority:1" json:"-"`
	Posture       PostureCode `gorm:"column:posture;not null" json:"posture"`
	CreatedAt     time.Time   `gorm:"column:created_at;not null;index:idx_posture_user_created,priority:2" json:"timestamp"`
}

// TableName задает имя таблицы
func (PostureRecord) TableName() string {
	return "posture_records"
}

// StatusHistoryResponse ответ get_status
type StatusHistoryResponse struct {
	Statuses []StatusRecord `json:"statuses"`
}

// PostureHistoryResponse ответ get_posture
type PostureHistoryResponse struct {
	Postures []PostureRecord `json:"postures"`
}
