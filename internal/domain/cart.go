package domain

type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CartLine is a read-only snapshot of a server-side cart line.
type CartLine struct {
	ID              string      `json:"id"`
	ProductID       string      `json:"productId"`
	ProductDetailID string      `json:"productDetailId"`
	Name            string      `json:"name"`
	UnitPrice       int64       `json:"unitPrice"`
	Quantity        int         `json:"quantity"`
	Attributes      []Attribute `json:"attributes,omitempty"`
}

func (l CartLine) LineTotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}
