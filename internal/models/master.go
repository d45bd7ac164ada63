package models

// ProductionUnit is a plant the company produces from
type ProductionUnit struct {
	ProductionUnitID   int64  `json:"productionUnitId"`
	ProductionUnitName string `json:"productionUnitName"`
	City               string `json:"city,omitempty"`
}

// UnmarshalJSON decodes a production unit from any of the casings upstream emits
func (p *ProductionUnit) UnmarshalJSON(data []byte) error {
	m, err := decodeFields(data)
	if err != nil {
		return err
	}
	*p = ProductionUnit{
		ProductionUnitID:   m.int64("productionUnitId", "ProductionUnitID", "ProductionUnitId", "ID"),
		ProductionUnitName: m.str("productionUnitName", "ProductionUnitName", "UnitName", "Name"),
		City:               m.str("city", "City", "CityName"),
	}
	return nil
}

// Client is a customer ledger
type Client struct {
	ClientID   int64  `json:"clientId"`
	ClientName string `json:"clientName"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// UnmarshalJSON decodes a client from any of the casings upstream emits
func (c *Client) UnmarshalJSON(data []byte) error {
	m, err := decodeFields(data)
	if err != nil {
		return err
	}
	*c = Client{
		ClientID:   m.int64("clientId", "ClientID", "LedgerID", "LedgerId", "ID"),
		ClientName: m.str("clientName", "ClientName", "LedgerName", "Name"),
		Email:      m.str("email", "Email", "EmailID"),
		Phone:      m.str("phone", "Phone", "MobileNo", "PhoneNo"),
	}
	return nil
}
