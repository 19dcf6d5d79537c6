package models

import "time"

// ProductList accumulates one competitor's products during a run.
// Successful and Failed are set by whoever drives extraction.
type ProductList struct {
	Competitor  string    `json:"competitor"`
	CollectedAt time.Time `json:"collected_at"`
	Products    []Product `json:"products"`
	Total       int       `json:"total_products"`
	Successful  int       `json:"successful_extractions"`
	Failed      int       `json:"failed_extractions"`
}

func NewProductList(competitor string) *ProductList {
	return &ProductList{Competitor: competitor, CollectedAt: time.Now().UTC()}
}

func (l *ProductList) Add(p Product) {
	l.Products = append(l.Products, p)
	l.Total = len(l.Products)
}

func (l *ProductList) ValidProducts() []Product {
	var valid []Product
	for _, p := range l.Products {
		if p.IsValidForExport() {
			valid = append(valid, p)
		}
	}
	return valid
}

func (l *ProductList) SuccessRate() float64 {
	return successRate(l.Successful, l.Failed)
}

// PromotionList accumulates one competitor's promotions. The status
// counters are recomputed over every promotion on each Add.
type PromotionList struct {
	Competitor  string      `json:"competitor"`
	CollectedAt time.Time   `json:"collected_at"`
	Promotions  []Promotion `json:"promotions"`
	Total       int         `json:"total_promotions"`
	Active      int         `json:"active_promotions"`
	Upcoming    int         `json:"upcoming_promotions"`
	Expired     int         `json:"expired_promotions"`
	Successful  int         `json:"successful_extractions"`
	Failed      int         `json:"failed_extractions"`

	now func() time.Time
}

func NewPromotionList(competitor string) *PromotionList {
	return &PromotionList{Competitor: competitor, CollectedAt: time.Now().UTC()}
}

func (l *PromotionList) clock() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}

func (l *PromotionList) Add(p Promotion) {
	l.Promotions = append(l.Promotions, p)
	l.Total = len(l.Promotions)
	l.recount()
}

func (l *PromotionList) recount() {
	today := l.clock()
	l.Active, l.Upcoming, l.Expired = 0, 0, 0
	for _, p := range l.Promotions {
		if p.ActiveOn(today) {
			l.Active++
		}
		switch p.Status {
		case StatusUpcoming:
			l.Upcoming++
		case StatusExpired:
			l.Expired++
		}
	}
}

func (l *PromotionList) ValidPromotions() []Promotion {
	var valid []Promotion
	for _, p := range l.Promotions {
		if p.IsValidForExport() {
			valid = append(valid, p)
		}
	}
	return valid
}

func (l *PromotionList) ActivePromotions() []Promotion {
	today := l.clock()
	var active []Promotion
	for _, p := range l.Promotions {
		if p.ActiveOn(today) {
			active = append(active, p)
		}
	}
	return active
}

func (l *PromotionList) SuccessRate() float64 {
	return successRate(l.Successful, l.Failed)
}

func successRate(ok, failed int) float64 {
	total := ok + failed
	if total == 0 {
		return 0
	}
	return float64(ok) / float64(total)
}
