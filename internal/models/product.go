package models

import "time"

// Category groups products for catalog filtering.
type Category struct {
	ID        string    `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"not null" validate:"required,max=100"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;type:varchar(120)" validate:"required,lowercase,max=120"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProductSpec is a single key/value line of a product's technical details.
type ProductSpec struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Product represents a product in the store.
type Product struct {
	ID               string        `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name             string        `json:"name" gorm:"not null" validate:"required,max=180"`
	Slug             string        `json:"slug" gorm:"uniqueIndex;type:varchar(200)" validate:"required,lowercase,max=200"`
	Description      string        `json:"description" validate:"required"`
	ShortDescription string        `json:"shortDescription,omitempty" validate:"omitempty,max=280"`
	Price            float64       `json:"price" validate:"gte=0"`
	Currency         string        `json:"currency" gorm:"type:varchar(3)" validate:"omitempty,len=3"`
	ImageURL         string        `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Images           []string      `json:"images,omitempty" gorm:"serializer:json"`
	CategoryID       *string       `json:"categoryId,omitempty" gorm:"type:varchar(36);index"`
	Category         *Category     `json:"category,omitempty" gorm:"foreignKey:CategoryID" validate:"-"`
	Tags             []string      `json:"tags,omitempty" gorm:"serializer:json"`
	Specs            []ProductSpec `json:"specs,omitempty" gorm:"serializer:json"`
	Stock            int           `json:"stock" validate:"gte=0"`
	IsActive         bool          `json:"isActive" gorm:"index;not null"`
	CreatedAt        time.Time     `json:"createdAt" gorm:"index"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// PrimaryImage returns the image captured on order line items.
func (p *Product) PrimaryImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return p.ImageURL
}

// ProductUpdate carries a partial product update; nil fields are left unchanged.
type ProductUpdate struct {
	Name             *string        `json:"name" validate:"omitempty,min=1,max=180"`
	Slug             *string        `json:"slug" validate:"omitempty,lowercase,min=1,max=200"`
	Description      *string        `json:"description"`
	ShortDescription *string        `json:"shortDescription" validate:"omitempty,max=280"`
	Price            *float64       `json:"price" validate:"omitempty,gte=0"`
	Currency         *string        `json:"currency" validate:"omitempty,len=3"`
	ImageURL         *string        `json:"imageUrl" validate:"omitempty,url"`
	Images           *[]string      `json:"images"`
	CategoryID       *string        `json:"categoryId" validate:"omitempty,uuid"`
	Tags             *[]string      `json:"tags"`
	Specs            *[]ProductSpec `json:"specs"`
	Stock            *int           `json:"stock" validate:"omitempty,gte=0"`
	IsActive         *bool          `json:"isActive"`
}

// Apply copies every non-nil field onto p.
func (u ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Slug != nil {
		p.Slug = *u.Slug
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.ShortDescription != nil {
		p.ShortDescription = *u.ShortDescription
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Currency != nil {
		p.Currency = *u.Currency
	}
	if u.ImageURL != nil {
		p.ImageURL = *u.ImageURL
	}
	if u.Images != nil {
		p.Images = *u.Images
	}
	if u.CategoryID != nil {
		id := *u.CategoryID
		p.CategoryID = &id
		p.Category = nil
	}
	if u.Tags != nil {
		p.Tags = *u.Tags
	}
	if u.Specs != nil {
		p.Specs = *u.Specs
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}
}
