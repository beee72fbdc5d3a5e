package domain

type Vendor struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}
