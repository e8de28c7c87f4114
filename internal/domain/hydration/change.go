package hydration

// ChangeType тип изменения строки в таблице sips
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Change уведомление об изменении строки. Для DELETE заполнен только ID,
// для INSERT/UPDATE - новая строка целиком.
type Change struct {
	Type ChangeType `json:"type"`
	ID   string     `json:"id"`
	Row  *SipRow    `json:"row,omitempty"`
}
