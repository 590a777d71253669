package backend

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Ref is an identifier the backend sends either as a string or a number.
type Ref string

// UnmarshalJSON accepts strings, numbers and null.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*r = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Ref(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = Ref(n.String())
	return nil
}

// Number is a decimal the backend sends either as a number or a string.
type Number float64

// UnmarshalJSON accepts numbers, numeric strings and null.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Float returns the value as float64.
func (n Number) Float() float64 {
	return float64(n)
}

// Timestamp tolerates RFC 3339 strings, unix milliseconds and garbage.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON never fails; unreadable values become the zero time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	t.Time = time.Time{}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed
				return nil
			}
		}
		return nil
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err == nil && ms > 0 {
		t.Time = time.UnixMilli(ms).UTC()
	}
	return nil
}

// MarshalJSON writes RFC 3339 or null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// ListParams are the common listing filters.
type ListParams struct {
	Query   string
	Status  string
	Page    int
	PerPage int
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	if p.Query != "" {
		v.Set("search", p.Query)
	}
	if p.Status != "" {
		v.Set("status", p.Status)
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("limit", strconv.Itoa(p.PerPage))
	}
	return v
}

// Page is one page of a listing.
type Page[T any] struct {
	Items []T
	Total int
}

// User is a platform member as seen by staff.
type User struct {
	ID        Ref       `json:"id"`
	MongoID   Ref       `json:"_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	Verified  bool      `json:"isVerified"`
	Balance   Number    `json:"balance"`
	AvatarURL string    `json:"avatar"`
	CreatedAt Timestamp `json:"createdAt"`
}

func (u *User) normalize() {
	if u.ID == "" {
		u.ID = u.MongoID
	}
	if u.Name == "" {
		u.Name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	if u.Status == "" {
		u.Status = "active"
	}
}

// DisplayName prefers the full name and falls back to the email.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Deal is an agreement between two members.
type Deal struct {
	ID         Ref       `json:"id"`
	MongoID    Ref       `json:"_id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	Amount     Number    `json:"amount"`
	Currency   string    `json:"currency"`
	BuyerName  string    `json:"buyerName"`
	SellerName string    `json:"sellerName"`
	BuyerID    Ref       `json:"buyerId"`
	SellerID   Ref       `json:"sellerId"`
	CreatedAt  Timestamp `json:"createdAt"`
}

func (d *Deal) normalize() {
	if d.ID == "" {
		d.ID = d.MongoID
	}
}

// Gig is a listing offered by a member.
type Gig struct {
	ID        Ref       `json:"id"`
	MongoID   Ref       `json:"_id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	Price     Number    `json:"price"`
	OwnerName string    `json:"ownerName"`
	Flagged   bool      `json:"flagged"`
	CreatedAt Timestamp `json:"createdAt"`
}

func (g *Gig) normalize() {
	if g.ID == "" {
		g.ID = g.MongoID
	}
}

// EscrowJob is money held for a deal.
type EscrowJob struct {
	ID        Ref       `json:"id"`
	MongoID   Ref       `json:"_id"`
	DealID    Ref       `json:"dealId"`
	Amount    Number    `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	PayerName string    `json:"payerName"`
	PayeeName string    `json:"payeeName"`
	CreatedAt Timestamp `json:"createdAt"`
	ReleaseAt Timestamp `json:"releaseAt"`
}

func (e *EscrowJob) normalize() {
	if e.ID == "" {
		e.ID = e.MongoID
	}
}

// Releasable reports whether staff may force a release.
func (e EscrowJob) Releasable() bool {
	switch strings.ToLower(e.Status) {
	case "released", "refunded", "cancelled":
		return false
	}
	return true
}

// Dispute is a complaint raised on a deal.
type Dispute struct {
	ID         Ref       `json:"id"`
	MongoID    Ref       `json:"_id"`
	DealID     Ref       `json:"dealId"`
	RaisedBy   string    `json:"raisedBy"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status"`
	Resolution string    `json:"resolution"`
	CreatedAt  Timestamp `json:"createdAt"`
}

func (d *Dispute) normalize() {
	if d.ID == "" {
		d.ID = d.MongoID
	}
	if d.Status == "" {
		d.Status = "open"
	}
}

// Open reports whether the dispute still awaits a decision.
func (d Dispute) Open() bool {
	return !strings.EqualFold(d.Status, "resolved") && !strings.EqualFold(d.Status, "closed")
}

// RewardTrigger grants points when a platform event happens.
type RewardTrigger struct {
	ID          Ref       `json:"id"`
	MongoID     Ref       `json:"_id"`
	Name        string    `json:"name"`
	Event       string    `json:"event"`
	Points      Number    `json:"points"`
	Active      bool      `json:"active"`
	Description string    `json:"description"`
	CreatedAt   Timestamp `json:"createdAt"`
}

func (t *RewardTrigger) normalize() {
	if t.ID == "" {
		t.ID = t.MongoID
	}
}

// Notification is a message sent to members.
type Notification struct {
	ID        Ref       `json:"id"`
	MongoID   Ref       `json:"_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Audience  string    `json:"audience"`
	UserID    Ref       `json:"userId"`
	CreatedAt Timestamp `json:"createdAt"`
}

func (n *Notification) normalize() {
	if n.ID == "" {
		n.ID = n.MongoID
	}
}

// Settings are the platform wide switches.
type Settings struct {
	PlatformFeePercent Number          `json:"platformFeePercent"`
	MaintenanceMode    bool            `json:"maintenanceMode"`
	SupportEmail       string          `json:"supportEmail"`
	FeatureFlags       map[string]bool `json:"featureFlags"`
}

// MonthlyPoint is one bucket of the activity series.
type MonthlyPoint struct {
	Month   string `json:"month"`
	Signups Number `json:"signups"`
	Deals   Number `json:"deals"`
}

// Stats are the dashboard headline numbers.
type Stats struct {
	TotalUsers   Number         `json:"totalUsers"`
	ActiveDeals  Number         `json:"activeDeals"`
	PendingGigs  Number         `json:"pendingGigs"`
	OpenDisputes Number         `json:"openDisputes"`
	EscrowHeld   Number         `json:"escrowHeld"`
	Revenue      Number         `json:"revenue"`
	Monthly      []MonthlyPoint `json:"monthly"`
}
