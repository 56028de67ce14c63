package backend

// Wire types for the backend REST API. Field names and casing follow the
// backend's JSON contract; money travels as plain numbers on the wire and is
// converted to decimal inside the cart and service layers.

type Table struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Seats    int    `json:"seats"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

type OrderItem struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Category      string  `json:"category,omitempty"`
	Department    string  `json:"department"`
	Quantity      int     `json:"quantity"`
	SentToKitchen bool    `json:"sentToKitchen"`
}

type TableOrder struct {
	TableID   string      `json:"tableId"`
	TableName string      `json:"tableName"`
	Items     []OrderItem `json:"items"`
	StartTime string      `json:"startTime"`
}

type Invoice struct {
	ID         string      `json:"id,omitempty"`
	BillNumber string      `json:"billNumber"`
	OrderType  string      `json:"orderType"`
	TableName  string      `json:"tableName,omitempty"`
	Items      []OrderItem `json:"items"`
	Subtotal   float64     `json:"subtotal"`
	Tax        float64     `json:"tax"`
	Total      float64     `json:"total"`
	Timestamp  string      `json:"timestamp"`
}

type KOTConfig struct {
	PrintByDepartment bool   `json:"printByDepartment"`
	NumberOfCopies    int    `json:"numberOfCopies"`
	SelectedPrinter   string `json:"selectedPrinter,omitempty"`
	PaperSize         string `json:"paperSize,omitempty"`
	FormatType        string `json:"formatType,omitempty"`
}

type BillConfig struct {
	AutoPrintDineIn  bool   `json:"autoPrintDineIn"`
	AutoPrintTakeaway bool  `json:"autoPrintTakeaway"`
	SelectedPrinter  string `json:"selectedPrinter,omitempty"`
	PaperSize        string `json:"paperSize,omitempty"`
	FormatType       string `json:"formatType,omitempty"`
}

type MenuItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ProductCode string  `json:"productCode"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Department  string  `json:"department"`
	Description string  `json:"description"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RestaurantSettings struct {
	ID             int     `json:"id"`
	RestaurantName string  `json:"restaurantName"`
	Address        string  `json:"address,omitempty"`
	Phone          string  `json:"phone,omitempty"`
	Email          string  `json:"email,omitempty"`
	Currency       string  `json:"currency"`
	TaxRate        float64 `json:"taxRate"`
}
