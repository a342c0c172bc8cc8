package model

import "time"

// TaskType is a tenant-scoped category label with a display color.
type TaskType struct {
	ID        string    `json:"id" db:"id"`
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	Label     string    `json:"label" db:"label"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// EntityRef is a denormalized name for an external business object,
// kept so list views can show entity names without per-row lookups.
type EntityRef struct {
	TenantID   string    `json:"tenant_id" db:"tenant_id"`
	EntityType string    `json:"entity_type" db:"entity_type"`
	EntityID   string    `json:"entity_id" db:"entity_id"`
	Name       string    `json:"name" db:"name"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
