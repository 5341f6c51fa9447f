package model

import "time"

// TimestampLayout is the wire format for scraped timestamps in both the raw
// and verified CSV resources.
const TimestampLayout = "2006-01-02 15:04:05"

// SchemaVersion marks the verified output schema. Bump on any column
// rename/reorder so downstream readers can detect incompatible files
// instead of failing on a missing column.
const SchemaVersion = "2"

// RawLead is one candidate business contact as acquired from a source.
// Every core field is always present (possibly empty) — the verifier reads
// all of them. The enrichment fields (Lead Score, Reason to Contact,
// Attribute) are optional in the raw resource and zero when absent.
type RawLead struct {
	BusinessName    string `csv:"Business Name" json:"business_name"`
	Niche           string `csv:"Niche" json:"niche"`
	City            string `csv:"City" json:"city"`
	Phone           string `csv:"Phone" json:"phone"`
	Email           string `csv:"Email" json:"email"`
	LeadScore       int    `csv:"Lead Score" json:"lead_score,omitempty"`
	ReasonToContact string `csv:"Reason to Contact" json:"reason_to_contact,omitempty"`
	Attribute       string `csv:"Attribute" json:"attribute,omitempty"`
	SourceURL       string `csv:"Source URL" json:"source_url"`
	ScrapedAt       string `csv:"Scraped At" json:"scraped_at"`
}

// VerifiedLead is a RawLead that survived every verification gate.
// Phone keeps the original formatted string (the digit-only form is only
// used for validation). The column set and order is the sole contract with
// the dashboard and must not drift between runs.
type VerifiedLead struct {
	BusinessName    string `csv:"Business Name" json:"business_name"`
	Phone           string `csv:"Phone" json:"phone"`
	Email           string `csv:"Email" json:"email"`
	City            string `csv:"City" json:"city"`
	Niche           string `csv:"Niche" json:"niche"`
	LeadScore       int    `csv:"Lead Score" json:"lead_score"`
	ReasonToContact string `csv:"Reason to Contact" json:"reason_to_contact"`
	Attribute       string `csv:"Attribute" json:"attribute"`
	SourceURL       string `csv:"Source URL" json:"source_url"`
	ScrapedAt       string `csv:"Scraped At" json:"scraped_at"`
	SchemaVersion   string `csv:"Schema Version" json:"schema_version"`
}

// OrderStatus is the fulfillment state of a lead order. The only legal
// transition is PENDING_SCRAPE → SCRAPE_COMPLETE, once, after the order's
// batch has been durably persisted.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING_SCRAPE"
	OrderStatusComplete OrderStatus = "SCRAPE_COMPLETE"
)

// LeadOrder is a customer-submitted request to source leads for a
// niche/location pair. Orders are append-only; the pipeline only ever
// flips Status.
type LeadOrder struct {
	ID        string      `csv:"ID" json:"id"`
	CreatedAt string      `csv:"Timestamp" json:"created_at"`
	Niche     string      `csv:"Niche" json:"niche"`
	Location  string      `csv:"Location" json:"location"`
	MaxCount  int         `csv:"Max Count" json:"max_count"`
	Requester string      `csv:"Requester" json:"requester"`
	Status    OrderStatus `csv:"Status" json:"status"`
}

// ScrapeTarget drives one acquisition batch. OrderID is empty for the
// synthesized default maintenance target, which never marks any order
// complete.
type ScrapeTarget struct {
	Niche    string `json:"niche"`
	City     string `json:"city"`
	MaxCount int    `json:"max_count"`
	OrderID  string `json:"order_id,omitempty"`
}

// RunStatus represents the state of one pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunRecord summarizes one pipeline run for the run-history store.
type RunRecord struct {
	ID         string    `json:"id"`
	Status     RunStatus `json:"status"`
	Targets    int       `json:"targets"`
	RawCount   int       `json:"raw_count"`
	AfterDedup int       `json:"after_dedup"`
	Verified   int       `json:"verified"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
