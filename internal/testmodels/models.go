// Package testmodels holds the models shared by the package tests.
package testmodels

import (
	"time"

	"github.com/go-openapi/strfmt"
)

// Created is the creation time stamped by NewTimestampedProduct.
var Created = time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)

type Product struct {

	// Unique identifier of the product.
	// Required: true
	ID int `json:"id" yaml:"id" dynamodbav:"id"`

	// Stock keeping unit.
	Sku string `json:"sku" yaml:"sku" dynamodbav:"sku"`

	// Description of the product.
	Description string `json:"description,omitempty" yaml:"description,omitempty" dynamodbav:"description,omitempty"`

	// Timestamp when the product was created.
	// Format: date-time
	CreatedAt *strfmt.DateTime `json:"createdAt,omitempty" yaml:"createdAt,omitempty" dynamodbav:"createdAt,omitempty"`
}

type Category struct {

	// Unique identifier of the category.
	// Required: true
	ID int `json:"id" yaml:"id" dynamodbav:"id"`

	// Name of the category.
	Name string `json:"name" yaml:"name" dynamodbav:"name"`
}

type User struct {

	// Unique identifier of the user.
	// Required: true
	ID string `json:"id" yaml:"id" dynamodbav:"id"`

	Name string `json:"name" yaml:"name" dynamodbav:"name"`

	Email string `json:"email,omitempty" yaml:"email,omitempty" dynamodbav:"email,omitempty"`
}

// NewProduct builds a product without timestamps.
func NewProduct(id int, sku, description string) *Product {
	return &Product{ID: id, Sku: sku, Description: description}
}

// NewTimestampedProduct builds a product created at Created.
func NewTimestampedProduct(id int, sku, description string) *Product {
	created := strfmt.DateTime(Created)
	p := NewProduct(id, sku, description)
	p.CreatedAt = &created
	return p
}

// NewCategory builds a category.
func NewCategory(id int, name string) *Category {
	return &Category{ID: id, Name: name}
}
