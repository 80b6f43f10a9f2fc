package models

import (
	"encoding/json"
	"time"
)

// Stock change directions recorded in the part stock history ledger.
const (
	StockChangeIncrease = "increase"
	StockChangeDecrease = "decrease"
)

// Part is an item of parts inventory.
type Part struct {
	ID                 string          `db:"id" json:"id"`
	PartNumber         string          `db:"part_number" json:"part_number"`
	Name               string          `db:"name" json:"name"`
	Description        string          `db:"description" json:"description"`
	Category           string          `db:"category" json:"category"`
	Manufacturer       string          `db:"manufacturer" json:"manufacturer"`
	SupplierID         *string         `db:"supplier_id" json:"supplier_id,omitempty"`
	CostPrice          float64         `db:"cost_price" json:"cost_price"`
	SellingPrice       float64         `db:"selling_price" json:"selling_price"`
	QuantityInStock    int             `db:"quantity_in_stock" json:"quantity_in_stock"`
	ReorderLevel       int             `db:"reorder_level" json:"reorder_level"`
	Location           string          `db:"location" json:"location"`
	Notes              string          `db:"notes" json:"notes"`
	CompatibleVehicles json.RawMessage `db:"compatible_vehicles" json:"compatible_vehicles,omitempty"`
	CreatedBy          string          `db:"created_by" json:"created_by"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// PartDetail joins supplier display fields and recent stock history.
type PartDetail struct {
	Part
	SupplierName    *string            `db:"supplier_name" json:"supplier_name,omitempty"`
	SupplierContact *string            `db:"supplier_contact" json:"supplier_contact,omitempty"`
	StockHistory    []PartStockHistory `db:"-" json:"stock_history,omitempty"`
}

// PartStockHistory is an append-only ledger entry for quantity changes.
type PartStockHistory struct {
	ID               string    `db:"id" json:"id"`
	PartID           string    `db:"part_id" json:"part_id"`
	PreviousQuantity int       `db:"previous_quantity" json:"previous_quantity"`
	NewQuantity      int       `db:"new_quantity" json:"new_quantity"`
	ChangeType       string    `db:"change_type" json:"change_type"`
	ChangedBy        string    `db:"changed_by" json:"changed_by"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// PartFilter narrows part listings.
type PartFilter struct {
	Category   string
	SupplierID string
	LowStock   bool
	Search     string
	Page       int
	PageSize   int
}
