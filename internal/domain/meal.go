package domain

import "time"

// MealTemplate - suất ăn theo thực đơn của một ngày (bếp tập thể cấu hình).
type MealTemplate struct {
	ID       int    `json:"id"`
	Date     string `json:"date"` // YYYY-MM-DD
	Name     string `json:"name"`
	MealTime string `json:"meal_time"` // "lunch" hoặc "dinner"
}

// MealOrder - suất ăn một cư dân đã đăng ký thực sự (đã lưu ở store).
type MealOrder struct {
	ID         int       `json:"id"`
	UserID     int       `json:"user_id"`
	TemplateID int       `json:"template_id"`
	Date       string    `json:"date"` // YYYY-MM-DD
	Portions   int       `json:"portions"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type MealEntryKind string

const (
	MealEntryConfirmed MealEntryKind = "confirmed" // Có bản ghi đăng ký thật
	MealEntryPlanned   MealEntryKind = "planned"   // Chỉ là suất theo thực đơn, chưa đăng ký
)

// MealEntry là biến thể có nhãn: hoặc một đăng ký đã lưu (Order != nil),
// hoặc một suất theo thực đơn chưa đăng ký (Template != nil). Consumer phải
// switch theo Kind, không đoán theo field nào nil.
type MealEntry struct {
	Kind     MealEntryKind `json:"kind"`
	Order    *MealOrder    `json:"order,omitempty"`
	Template *MealTemplate `json:"template,omitempty"`
}

type MealOrderDTO struct {
	TemplateID int `json:"template_id" binding:"required"`
	Portions   int `json:"portions"` // 0 nghĩa là hủy đăng ký
}
