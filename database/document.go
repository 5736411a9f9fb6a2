package database

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Document is the single-file layout of the whole store. Ids are local to the
// document and are remapped on import.
type Document struct {
	Tenants          []DocTenant          `json:"tenants"`
	Users            []DocUser            `json:"users"`
	Tables           []DocTable           `json:"tables"`
	Categories       []DocCategory        `json:"categories"`
	Products         []DocProduct         `json:"products"`
	Orders           []DocOrder           `json:"orders"`
	CashTransactions []DocCashTransaction `json:"cash_transactions"`
}

type DocTenant struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type DocUser struct {
	ID           uint   `json:"id"`
	TenantID     *uint  `json:"tenant_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
	Active       *bool  `json:"active,omitempty"`
}

type DocTable struct {
	ID                  uint            `json:"id"`
	TenantID            uint            `json:"tenant_id"`
	Number              string          `json:"number"`
	Capacity            int             `json:"capacity"`
	Status              string          `json:"status"`
	CurrentCustomerName *string         `json:"current_customer_name"`
	RunningTotal        decimal.Decimal `json:"running_total"`
}

type DocCategory struct {
	ID           uint   `json:"id"`
	TenantID     uint   `json:"tenant_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
	Active       *bool  `json:"active,omitempty"`
}

type DocProduct struct {
	ID              uint            `json:"id"`
	CategoryID      uint            `json:"category_id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	Type            string          `json:"type"`
	Featured        bool            `json:"featured"`
	PrepTimeMinutes int             `json:"prep_time_minutes"`
	Active          *bool           `json:"active,omitempty"`
}

type DocOrderItem struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type DocOrder struct {
	ID                uint            `json:"id"`
	TableID           uint            `json:"table_id"`
	CustomerName      string          `json:"customer_name"`
	Items             []DocOrderItem  `json:"items"`
	Status            string          `json:"status"`
	Total             decimal.Decimal `json:"total"`
	Note              string          `json:"note"`
	CreatedAt         time.Time       `json:"created_at"`
	ReadyAt           *time.Time      `json:"ready_at"`
	DeliveredAt       *time.Time      `json:"delivered_at"`
	CashTransactionID *uint           `json:"cash_transaction_id"`
}

type DocCashTransaction struct {
	ID            uint            `json:"id"`
	TableID       uint            `json:"table_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	ClosedAt      time.Time       `json:"closed_at"`
}

// ImportResult counts the records written by Import.
type ImportResult struct {
	Tenants          int `json:"tenants"`
	Users            int `json:"users"`
	Tables           int `json:"tables"`
	Categories       int `json:"categories"`
	Products         int `json:"products"`
	Orders           int `json:"orders"`
	CashTransactions int `json:"cash_transactions"`
}

// ReadDocument decodes a document, rejecting unknown fields.
func ReadDocument(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, utils.InvalidField("document", err.Error())
	}
	return &doc, nil
}

func WriteDocument(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

type problems map[string]string

func (p problems) add(field, format string, args ...interface{}) {
	if _, ok := p[field]; !ok {
		p[field] = fmt.Sprintf(format, args...)
	}
}

// Validate checks every record and every reference of the document. Order
// totals must match their items and a table running total must match its
// unsettled orders.
func (d *Document) Validate() error {
	p := problems{}

	tenants := map[uint]bool{}
	for i, t := range d.Tenants {
		f := fmt.Sprintf("tenants[%d]", i)
		switch {
		case t.ID == 0:
			p.add(f+".id", "is required")
		case tenants[t.ID]:
			p.add(f+".id", "duplicate id %d", t.ID)
		}
		if strings.TrimSpace(t.Name) == "" {
			p.add(f+".name", "is required")
		}
		tenants[t.ID] = true
	}

	emails := map[string]bool{}
	for i, u := range d.Users {
		f := fmt.Sprintf("users[%d]", i)
		email := strings.ToLower(strings.TrimSpace(u.Email))
		switch {
		case !strings.Contains(email, "@"):
			p.add(f+".email", "must be a valid email")
		case emails[email]:
			p.add(f+".email", "duplicate email %s", email)
		}
		emails[email] = true
		if u.PasswordHash == "" {
			p.add(f+".password_hash", "is required")
		}
		role, err := models.ParseRole(u.Role)
		if err != nil {
			p.add(f+".role", "must be one of: super_admin admin operator")
			continue
		}
		if role == models.RoleSuperAdmin {
			if u.TenantID != nil {
				p.add(f+".tenant_id", "must be empty for super_admin")
			}
		} else if u.TenantID == nil || !tenants[*u.TenantID] {
			p.add(f+".tenant_id", "unknown tenant")
		}
	}

	tables := map[uint]uint{}
	numbers := map[string]bool{}
	for i, t := range d.Tables {
		f := fmt.Sprintf("tables[%d]", i)
		if t.ID == 0 || tables[t.ID] != 0 {
			p.add(f+".id", "missing or duplicate id")
		}
		if !tenants[t.TenantID] {
			p.add(f+".tenant_id", "unknown tenant")
		}
		key := fmt.Sprintf("%d/%s", t.TenantID, t.Number)
		switch {
		case strings.TrimSpace(t.Number) == "":
			p.add(f+".number", "is required")
		case numbers[key]:
			p.add(f+".number", "duplicate table number %s", t.Number)
		}
		numbers[key] = true
		if t.Capacity < 0 {
			p.add(f+".capacity", "must not be negative")
		}
		if t.Status != "" && t.Status != models.TableAvailable && t.Status != models.TableOccupied {
			p.add(f+".status", "must be available or occupied")
		}
		if t.RunningTotal.IsNegative() {
			p.add(f+".running_total", "must not be negative")
		}
		tables[t.ID] = t.TenantID
	}

	categories := map[uint]uint{}
	for i, c := range d.Categories {
		f := fmt.Sprintf("categories[%d]", i)
		if c.ID == 0 || categories[c.ID] != 0 {
			p.add(f+".id", "missing or duplicate id")
		}
		if !tenants[c.TenantID] {
			p.add(f+".tenant_id", "unknown tenant")
		}
		if strings.TrimSpace(c.Name) == "" {
			p.add(f+".name", "is required")
		}
		categories[c.ID] = c.TenantID
	}

	products := map[uint]uint{}
	for i, pr := range d.Products {
		f := fmt.Sprintf("products[%d]", i)
		if pr.ID == 0 || products[pr.ID] != 0 {
			p.add(f+".id", "missing or duplicate id")
		}
		tenantID, ok := categories[pr.CategoryID]
		if !ok {
			p.add(f+".category_id", "unknown category")
		}
		if strings.TrimSpace(pr.Name) == "" {
			p.add(f+".name", "is required")
		}
		if !pr.Price.IsPositive() {
			p.add(f+".price", "must be greater than 0")
		}
		if pr.Type != models.ProductFood && pr.Type != models.ProductDrink {
			p.add(f+".type", "must be food or drink")
		}
		products[pr.ID] = tenantID
	}

	cashTables := map[uint]uint{}
	for i, c := range d.CashTransactions {
		f := fmt.Sprintf("cash_transactions[%d]", i)
		if _, dup := cashTables[c.ID]; c.ID == 0 || dup {
			p.add(f+".id", "missing or duplicate id")
		}
		if _, ok := tables[c.TableID]; !ok {
			p.add(f+".table_id", "unknown table")
		}
		if c.TotalAmount.IsNegative() {
			p.add(f+".total_amount", "must not be negative")
		}
		if strings.TrimSpace(c.PaymentMethod) == "" {
			p.add(f+".payment_method", "is required")
		}
		cashTables[c.ID] = c.TableID
	}

	unsettled := map[uint]decimal.Decimal{}

	for i, o := range d.Orders {
		f := fmt.Sprintf("orders[%d]", i)
		tenantID, ok := tables[o.TableID]
		if !ok {
			p.add(f+".table_id", "unknown table")
		}
		if _, err := models.ParseOrderStatus(o.Status); err != nil {
			p.add(f+".status", "must be one of: pending preparing ready delivered")
		}
		if !o.Total.IsPositive() {
			p.add(f+".total", "must be greater than 0")
		}
		if len(o.Items) == 0 {
			p.add(f+".items", "must contain at least 1 entries")
		}
		sum := decimal.Zero
		for j, it := range o.Items {
			itf := fmt.Sprintf("%s.items[%d]", f, j)
			if owner, ok := products[it.ProductID]; !ok || owner != tenantID {
				p.add(itf+".product_id", "unknown product")
			}
			if it.Quantity <= 0 {
				p.add(itf+".quantity", "must be greater than 0")
			}
			if it.UnitPrice.IsNegative() {
				p.add(itf+".unit_price", "must not be negative")
			}
			sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
		if len(o.Items) > 0 && !sum.Equal(o.Total) {
			p.add(f+".total", "must equal the sum of its items (%s)", sum.StringFixed(2))
		}

		if o.CashTransactionID == nil {
			unsettled[o.TableID] = unsettled[o.TableID].Add(o.Total)
			continue
		}
		switch owner, ok := cashTables[*o.CashTransactionID]; {
		case !ok:
			p.add(f+".cash_transaction_id", "unknown cash transaction")
		case owner != o.TableID:
			p.add(f+".cash_transaction_id", "belongs to another table")
		}
	}

	for i, t := range d.Tables {
		if !unsettled[t.ID].Equal(t.RunningTotal) {
			p.add(fmt.Sprintf("tables[%d].running_total", i),
				"must equal the unsettled orders of the table (%s)", unsettled[t.ID].StringFixed(2))
		}
	}

	if len(p) > 0 {
		return utils.ValidationError(p)
	}
	return nil
}

// Import validates doc and loads it in one transaction. Nothing is written
// when any record is rejected.
func Import(ctx context.Context, db *gorm.DB, doc *Document) (*ImportResult, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	res := &ImportResult{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenantIDs := make(map[uint]uint, len(doc.Tenants))
		for _, t := range doc.Tenants {
			row := models.Tenant{Name: t.Name, Email: t.Email}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			tenantIDs[t.ID] = row.ID
		}

		for i, u := range doc.Users {
			email := strings.ToLower(strings.TrimSpace(u.Email))
			var count int64
			if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return utils.InvalidField(fmt.Sprintf("users[%d].email", i), "already exists in the store")
			}

			row := models.User{
				Name:         u.Name,
				Email:        email,
				PasswordHash: u.PasswordHash,
				Role:         models.Role(u.Role),
				Active:       true,
			}
			if u.TenantID != nil {
				id := tenantIDs[*u.TenantID]
				row.TenantID = &id
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			if u.Active != nil && !*u.Active {
				if err := tx.Model(&row).Update("active", false).Error; err != nil {
					return err
				}
			}
		}

		tableIDs := make(map[uint]uint, len(doc.Tables))
		tableTenant := make(map[uint]uint, len(doc.Tables))
		for _, t := range doc.Tables {
			row := models.Table{
				TenantID:            tenantIDs[t.TenantID],
				Number:              strings.TrimSpace(t.Number),
				Capacity:            t.Capacity,
				Status:              t.Status,
				CurrentCustomerName: t.CurrentCustomerName,
				RunningTotal:        t.RunningTotal.Round(2),
			}
			if row.Capacity == 0 {
				row.Capacity = 4
			}
			if row.Status == "" {
				row.Status = models.TableAvailable
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			tableIDs[t.ID] = row.ID
			tableTenant[row.ID] = row.TenantID
		}

		categoryIDs := make(map[uint]uint, len(doc.Categories))
		for _, c := range doc.Categories {
			row := models.Category{
				TenantID:     tenantIDs[c.TenantID],
				Name:         c.Name,
				Description:  c.Description,
				DisplayOrder: c.DisplayOrder,
				Active:       true,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			if c.Active != nil && !*c.Active {
				if err := tx.Model(&row).Update("active", false).Error; err != nil {
					return err
				}
			}
			categoryIDs[c.ID] = row.ID
		}

		productIDs := make(map[uint]uint, len(doc.Products))
		for _, pr := range doc.Products {
			row := models.Product{
				CategoryID:      categoryIDs[pr.CategoryID],
				Name:            pr.Name,
				Description:     pr.Description,
				Price:           pr.Price.Round(2),
				Type:            pr.Type,
				Featured:        pr.Featured,
				PrepTimeMinutes: pr.PrepTimeMinutes,
				Active:          true,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			if pr.Active != nil && !*pr.Active {
				if err := tx.Model(&row).Update("active", false).Error; err != nil {
					return err
				}
			}
			productIDs[pr.ID] = row.ID
		}

		cashIDs := make(map[uint]uint, len(doc.CashTransactions))
		for _, c := range doc.CashTransactions {
			tableID := tableIDs[c.TableID]
			row := models.CashTransaction{
				TenantID:      tableTenant[tableID],
				TableID:       tableID,
				TotalAmount:   c.TotalAmount.Round(2),
				PaymentMethod: c.PaymentMethod,
				ClosedAt:      c.ClosedAt,
			}
			if row.ClosedAt.IsZero() {
				row.ClosedAt = time.Now()
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			cashIDs[c.ID] = row.ID
		}

		for _, o := range doc.Orders {
			row := models.Order{
				TableID:      tableIDs[o.TableID],
				CustomerName: o.CustomerName,
				Status:       models.OrderStatus(o.Status),
				Total:        o.Total.Round(2),
				Note:         o.Note,
				ReadyAt:      o.ReadyAt,
				DeliveredAt:  o.DeliveredAt,
				CreatedAt:    o.CreatedAt,
			}
			if o.CashTransactionID != nil {
				id := cashIDs[*o.CashTransactionID]
				row.CashTransactionID = &id
			}
			for _, it := range o.Items {
				row.Items = append(row.Items, models.OrderItem{
					ProductID:   productIDs[it.ProductID],
					ProductName: it.ProductName,
					Quantity:    it.Quantity,
					UnitPrice:   it.UnitPrice.Round(2),
				})
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		*res = ImportResult{
			Tenants:          len(doc.Tenants),
			Users:            len(doc.Users),
			Tables:           len(doc.Tables),
			Categories:       len(doc.Categories),
			Products:         len(doc.Products),
			Orders:           len(doc.Orders),
			CashTransactions: len(doc.CashTransactions),
		}
		return nil
	})
	if err != nil {
		if utils.KindOf(err) == utils.KindValidation {
			return nil, err
		}
		return nil, utils.StorageError(err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"tenants": res.Tenants,
		"tables":  res.Tables,
		"orders":  res.Orders,
	}).Info("Document imported")
	return res, nil
}

// Export reads the whole store into a Document keyed by the stored ids.
func Export(ctx context.Context, db *gorm.DB) (*Document, error) {
	db = db.WithContext(ctx)
	doc := &Document{}

	var tenants []models.Tenant
	if err := db.Order("id").Find(&tenants).Error; err != nil {
		return nil, utils.StorageError(err)
	}
	for _, t := range tenants {
		doc.Tenants = append(doc.Tenants, DocTenant{ID: t.ID, Name: t.Name, Email: t.Email})
	}

	var users []models.User
	if err := db.Order("id").Find(&users).Error; err != nil {
		return nil, utils.StorageError(err)
	}
	for _, u := range users {
		active := u.Active
		doc.Users = append(doc.Users, DocUser{
			ID:           u.ID,
			TenantID:     u.TenantID,
			Name:         u.Name,
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			Role:         string(u.Role),
			Active:       &active,
		})
	}

	var tables []models.Table
	if err := db.Order("id").Find(&tables).Error; err != nil {
		return nil, utils.StorageError(err)
	}
	for _, t := range tables {
		doc.Tables = append(doc.Tables, DocTable{
			ID:                  t.ID,
			TenantID:            t.TenantID,
			Number:              t.Number,
			Capacity:            t.Capacity,
			Status:              t.Status,
			CurrentCustomerName: t.CurrentCustomerName,
			RunningTotal:        t.RunningTotal,
		})
	}

	var categories []models.Category
	if err := db.Order("id").Find(&categories).Error; err != nil {
		return nil, utils.StorageError(err)
	}
	for _, c := range categories {
		active := c.Active
		doc.Categories = append(doc.Categories, DocCategory{
			ID:           c.ID,
			TenantID:     c.TenantID,
			Name:         c.Name,
			Description:  c.Description,
			DisplayOrder: c.DisplayOrder,
			Active:       &active,
		})
	}

	var products []models.Product
	if err := db.Order("id").Find(&products).Error; err != nil {
		return nil, utils.StorageError(err)
	}
	for _, pr := range products {
		active := pr.Active
		doc.Products = append(doc.Products, DocProduct{
			ID:              pr.ID,
			CategoryID:      pr.CategoryID,
			Name:            pr.Name,
			Description:     pr.Description,
			Price:           pr.Price,
			Type:            pr.Type,
			Featured:        pr.Featured,
			PrepTimeMinutes: pr.PrepTimeMinutes,
			Active:          &active,
		})
	}

	var cash []models.CashTransaction
	if err := db.Order("id").Find(&cash).Error; err != nil {
		return nil, utils.StorageError(err)
	}
	for _, c := range cash {
		doc.CashTransactions = append(doc.CashTransactions, DocCashTransaction{
			ID:            c.ID,
			TableID:       c.TableID,
			TotalAmount:   c.TotalAmount,
			PaymentMethod: c.PaymentMethod,
			ClosedAt:      c.ClosedAt,
		})
	}

	var orders []models.Order
	if err := db.Preload("Items").Order("id").Find(&orders).Error; err != nil {
		return nil, utils.StorageError(err)
	}
	for _, o := range orders {
		items := make([]DocOrderItem, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, DocOrderItem{
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
			})
		}
		doc.Orders = append(doc.Orders, DocOrder{
			ID:                o.ID,
			TableID:           o.TableID,
			CustomerName:      o.CustomerName,
			Items:             items,
			Status:            string(o.Status),
			Total:             o.Total,
			Note:              o.Note,
			CreatedAt:         o.CreatedAt,
			ReadyAt:           o.ReadyAt,
			DeliveredAt:       o.DeliveredAt,
			CashTransactionID: o.CashTransactionID,
		})
	}
	return doc, nil
}
