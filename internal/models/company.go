/**
 * @description
 * Company database model.
 * Maps to the 'company' table.
 *
 * @dependencies
 * - gorm.io/gorm
 */

package models

import (
	"time"
)

// Company is a listed company tracked by the navigator
type Company struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;size:256;not null" json:"name" validate:"required,max=256"`
	Ticker    string    `gorm:"column:ticker;size:20;not null;uniqueIndex:idx_company_ticker" json:"ticker" validate:"required,max=20"`
	Sector    *string   `gorm:"column:sector;size:100" json:"sector,omitempty" validate:"omitempty,max=100"`
	Industry  *string   `gorm:"column:industry;size:100" json:"industry,omitempty" validate:"omitempty,max=100"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName overrides the table name used by Company to `company`
func (Company) TableName() string {
	return "company"
}

// String renders the company as TICKER: Name
func (c Company) String() string {
	return c.Ticker + ": " + c.Name
}
