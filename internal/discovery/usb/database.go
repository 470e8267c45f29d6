// internal/discovery/usb/database.go
package usb

import (
	"fmt"

	"github.com/google/gousb"
)

// DeviceDatabase contains known thermal receipt printers for
// identification by USB vendor/product ID.
type DeviceDatabase struct {
	vendors map[gousb.ID]*VendorInfo
}

// VendorInfo contains vendor-specific information
type VendorInfo struct {
	Name     string
	products map[gousb.ID]*ProductInfo
}

// ProductInfo contains product-specific information
type ProductInfo struct {
	Model      string
	Confidence float64
}

// NewDeviceDatabase creates and initializes the printer database
func NewDeviceDatabase() *DeviceDatabase {
	db := &DeviceDatabase{
		vendors: make(map[gousb.ID]*VendorInfo),
	}
	db.initializeDatabase()
	return db
}

// initializeDatabase populates the known printers database
func (db *DeviceDatabase) initializeDatabase() {
	// Epson (0x04B8)
	epsonVendor := &VendorInfo{
		Name:     "Epson",
		products: make(map[gousb.ID]*ProductInfo),
	}
	epsonVendor.products[0x0E03] = &ProductInfo{Model: "TM-T20", Confidence: 0.95}
	epsonVendor.products[0x0E15] = &ProductInfo{Model: "TM-T88V", Confidence: 0.95}
	epsonVendor.products[0x0E28] = &ProductInfo{Model: "TM-T88VI", Confidence: 0.95}
	epsonVendor.products[0x0202] = &ProductInfo{Model: "TM-T20II", Confidence: 0.95}
	epsonVendor.products[0x0E27] = &ProductInfo{Model: "TM-M30", Confidence: 0.95}
	db.vendors[0x04B8] = epsonVendor

	// Xprinter (0x0483)
	xprinterVendor := &VendorInfo{
		Name:     "Xprinter",
		products: make(map[gousb.ID]*ProductInfo),
	}
	xprinterVendor.products[0x5720] = &ProductInfo{Model: "XP-58", Confidence: 0.90}
	xprinterVendor.products[0x5740] = &ProductInfo{Model: "XP-80", Confidence: 0.90}
	xprinterVendor.products[0x5743] = &ProductInfo{Model: "XP-N160I", Confidence: 0.90}
	db.vendors[0x0483] = xprinterVendor

	// Rongta (0x0FE6)
	rongtaVendor := &VendorInfo{
		Name:     "Rongta",
		products: make(map[gousb.ID]*ProductInfo),
	}
	rongtaVendor.products[0x811E] = &ProductInfo{Model: "RP80", Confidence: 0.90}
	db.vendors[0x0FE6] = rongtaVendor

	// Goojprt (0x1504)
	goojprtVendor := &VendorInfo{
		Name:     "Goojprt",
		products: make(map[gousb.ID]*ProductInfo),
	}
	goojprtVendor.products[0x0006] = &ProductInfo{Model: "PT-210", Confidence: 0.85}
	db.vendors[0x1504] = goojprtVendor

	// WinPOS (0x0416)
	winposVendor := &VendorInfo{
		Name:     "WinPOS",
		products: make(map[gousb.ID]*ProductInfo),
	}
	winposVendor.products[0x5011] = &ProductInfo{Model: "WP-T810", Confidence: 0.85}
	db.vendors[0x0416] = winposVendor

	// Generic POS (0x28E9)
	genericVendor := &VendorInfo{
		Name:     "Generic POS",
		products: make(map[gousb.ID]*ProductInfo),
	}
	genericVendor.products[0x0289] = &ProductInfo{Model: "POS-58", Confidence: 0.75}
	db.vendors[0x28E9] = genericVendor
}

// IsKnownVendor checks if the vendor makes thermal printers
func (db *DeviceDatabase) IsKnownVendor(vendorID gousb.ID) bool {
	_, ok := db.vendors[vendorID]
	return ok
}

// GetVendorInfo returns vendor information, or nil
func (db *DeviceDatabase) GetVendorInfo(vendorID gousb.ID) *VendorInfo {
	return db.vendors[vendorID]
}

// GetProductInfo returns product information, or nil
func (v *VendorInfo) GetProductInfo(productID gousb.ID) *ProductInfo {
	return v.products[productID]
}

// GenericModel builds a placeholder model name for a known vendor
// with an unknown product ID.
func (v *VendorInfo) GenericModel(productID gousb.ID) string {
	return fmt.Sprintf("%s-%04X", v.Name, uint16(productID))
}
