/**
 * @description
 * Earnings call, analysis and user query database models.
 * Maps to the 'earnings_call', 'earnings_analysis' and 'query' tables.
 *
 * @dependencies
 * - gorm.io/gorm
 * - gorm.io/datatypes (JSON columns)
 *
 * @notes
 * - Association fields only exist so AutoMigrate emits the foreign keys; they are never
 *   preloaded. Navigation goes through the store's traversal methods.
 * - Every foreign key is ON DELETE RESTRICT, ON UPDATE CASCADE.
 */

package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// EarningsCall is one company's call for one fiscal quarter
type EarningsCall struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CompanyID      uint      `gorm:"column:company_id;not null;index:idx_earnings_call_company" json:"company_id" validate:"required"`
	FiscalYear     int       `gorm:"column:fiscal_year;not null" json:"fiscal_year" validate:"required"`
	FiscalQuarter  int       `gorm:"column:fiscal_quarter;not null" json:"fiscal_quarter" validate:"required,min=1,max=4"`
	CallDate       time.Time `gorm:"column:call_date;not null" json:"call_date" validate:"required"`
	TranscriptText *string   `gorm:"column:transcript_text;type:text" json:"transcript_text,omitempty"`
	AudioURL       *string   `gorm:"column:audio_url;size:512" json:"audio_url,omitempty" validate:"omitempty,max=512"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Company *Company `gorm:"foreignKey:CompanyID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-" validate:"-"`
}

// TableName overrides the table name used by EarningsCall to `earnings_call`
func (EarningsCall) TableName() string {
	return "earnings_call"
}

// Period renders the fiscal period as Q<quarter> FY<year>
func (c EarningsCall) Period() string {
	return fmt.Sprintf("Q%d FY%d", c.FiscalQuarter, c.FiscalYear)
}

// EarningsAnalysis holds the AI-derived analysis of a single call.
// Sentiment scores lie in [-1, 1], management confidence in [0, 1].
type EarningsAnalysis struct {
	ID                   uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	EarningsCallID       uint           `gorm:"column:earnings_call_id;not null;uniqueIndex:idx_earnings_analysis_call" json:"earnings_call_id" validate:"required"`
	SentimentScore       *float64       `gorm:"column:sentiment_score" json:"sentiment_score,omitempty" validate:"omitempty,min=-1,max=1"`
	GuidanceSentiment    *float64       `gorm:"column:guidance_sentiment" json:"guidance_sentiment,omitempty" validate:"omitempty,min=-1,max=1"`
	ManagementConfidence *float64       `gorm:"column:management_confidence" json:"management_confidence,omitempty" validate:"omitempty,min=0,max=1"`
	Summary              *string        `gorm:"column:summary;type:text" json:"summary,omitempty"`
	KeyMetrics           datatypes.JSON `gorm:"column:key_metrics" json:"key_metrics,omitempty"`
	KeyTopics            datatypes.JSON `gorm:"column:key_topics" json:"key_topics,omitempty"`
	CompetitorMentions   datatypes.JSON `gorm:"column:competitor_mentions" json:"competitor_mentions,omitempty"`
	GuidanceChanges      datatypes.JSON `gorm:"column:guidance_changes" json:"guidance_changes,omitempty"`
	CreatedAt            time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	EarningsCall *EarningsCall `gorm:"foreignKey:EarningsCallID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-" validate:"-"`
}

// TableName overrides the table name used by EarningsAnalysis to `earnings_analysis`
func (EarningsAnalysis) TableName() string {
	return "earnings_analysis"
}

// Query is a user question about a call together with the AI answer
type Query struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	EarningsCallID uint      `gorm:"column:earnings_call_id;not null;index:idx_query_call" json:"earnings_call_id" validate:"required"`
	UserQuery      string    `gorm:"column:user_query;type:text;not null" json:"user_query" validate:"required"`
	AIResponse     string    `gorm:"column:ai_response;type:text;not null" json:"ai_response" validate:"required"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	EarningsCall *EarningsCall `gorm:"foreignKey:EarningsCallID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-" validate:"-"`
}

// TableName overrides the table name used by Query to `query`
func (Query) TableName() string {
	return "query"
}

// All lists every record type in dependency order, for schema bootstrap
func All() []interface{} {
	return []interface{}{
		&Company{},
		&EarningsCall{},
		&EarningsAnalysis{},
		&Query{},
	}
}
