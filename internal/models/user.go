package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// User представляет учетную запись наблюдаемого пользователя
type User struct {
	UniqueNum       uint      `gorm:"column:unique_num;primaryKey;autoIncrement" json:"unique_num"`
	LoginID         string    `gorm:"column:id;type:varchar(255);uniqueIndex;not null" json:"id"`
	Password        string    `gorm:"column:password;type:varchar(255);not null" json:"-"`
	Name            string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Age             int       `gorm:"column:age;not null" json:"age"`
	Address         string    `gorm:"column:address;type:varchar(255);not null" json:"address"`
	DetailedAddress *string   `gorm:"column:detailed_address;type:varchar(255)" json:"detailed_address,omitempty"`
	PhoneNum        string    `gorm:"column:phone_num;type:varchar(20);not null" json:"phone_num"`
	GuardName       *string   `gorm:"column:guard_name;type:varchar(255)" json:"guard_name,omitempty"`
	GuardPhoneNum   *string   `gorm:"column:guard_phone_num;type:varchar(20)" json:"guard_phone_num,omitempty"`
	DangerDegree    *int      `gorm:"column:danger_degree" json:"danger_degree,omitempty"`
	UserPosture     *int      `gorm:"column:user_posture" json:"user_posture,omitempty"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	// Журналы удаляются вместе с пользователем
	StatusRecords  []StatusRecord  `gorm:"foreignKey:UserUniqueNum;references:UniqueNum;constraint:OnDelete:CASCADE" json:"-"`
	PostureRecords []PostureRecord `gorm:"foreignKey:UserUniqueNum;references:UniqueNum;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName задает имя таблицы
func (User) TableName() string {
	return "users"
}

// HasGuardian сообщает, указан ли у пользователя контакт опекуна
func (u *User) HasGuardian() bool {
	return u.GuardPhoneNum != nil && *u.GuardPhoneNum != ""
}

// Session связывает непрозрачный токен с идентификатором пользователя
type Session struct {
	Token     string    `json:"-"`
	LoginID   string    `json:"login_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FlexibleInt принимает число как в виде JSON-числа, так и в виде строки ("30")
type FlexibleInt struct {
	Value int
	Set   bool
}

// UnmarshalJSON разбирает число или строку с числом
func (f *FlexibleInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = FlexibleInt{}
		return nil
	}

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*f = FlexibleInt{}
			return nil
		}
	} else {
		raw = string(data)
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid integer %q", raw)
	}
	*f = FlexibleInt{Value: v, Set: true}
	return nil
}

// MarshalJSON кодирует значение как число
func (f FlexibleInt) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(f.Value)), nil
}

// SignupRequest тело запроса регистрации
type SignupRequest struct {
	ID              string      `json:"id"`
	Password        string      `json:"password"`
	Name            string      `json:"name"`
	Age             FlexibleInt `json:"age"`
	Address         string      `json:"address"`
	DetailedAddress string      `json:"detailed_address"`
	PhoneNum        string      `json:"phone_num"`
	GuardName       string      `json:"guard_name"`
	GuardPhoneNum   string      `json:"guard_phone_num"`
}

// Validate проверяет обязательные поля регистрации и возвращает имена отсутствующих
func (r *SignupRequest) Validate() []string {
	var missing []string
	if strings.TrimSpace(r.ID) == "" {
		missing = append(missing, "id")
	}
	if r.Password == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	if !r.Age.Set || r.Age.Value < 0 {
		missing = append(missing, "age")
	}
	if strings.TrimSpace(r.Address) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(r.PhoneNum) == "" {
		missing = append(missing, "phone_num")
	}
	return missing
}

// ToUser строит модель пользователя с уже захешированным паролем
func (r *SignupRequest) ToUser(passwordHash string) *User {
	return &User{
		LoginID:         strings.TrimSpace(r.ID),
		Password:        passwordHash,
		Name:            r.Name,
		Age:             r.Age.Value,
		Address:         r.Address,
		DetailedAddress: optionalString(r.DetailedAddress),
		PhoneNum:        r.PhoneNum,
		GuardName:       optionalString(r.GuardName),
		GuardPhoneNum:   optionalString(r.GuardPhoneNum),
	}
}

// LoginRequest тело запроса входа
type LoginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// CheckIDRequest тело запроса проверки идентификатора
type CheckIDRequest struct {
	ID string `json:"id"`
}

// UserInfoResponse ответ user_info
type UserInfoResponse struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func optionalString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
