package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/stayhub/backend/internal/models"
)

// PropertyFilter narrows a property listing query. Zero values are omitted.
type PropertyFilter struct {
	City         string
	UniversityID string
	MaxPrice     float64
	Guests       int
}

// Properties exposes the property listing endpoints.
type Properties struct {
	c *Client
}

// NewProperties binds the properties module to a client.
func NewProperties(c *Client) Properties {
	return Properties{c: c}
}

// List fetches properties matching the filter.
func (p Properties) List(ctx context.Context, filter PropertyFilter) ([]models.Property, error) {
	query := url.Values{}
	if filter.City != "" {
		query.Set("city", filter.City)
	}
	if filter.UniversityID != "" {
		query.Set("universityId", filter.UniversityID)
	}
	if filter.MaxPrice > 0 {
		query.Set("maxPrice", strconv.FormatFloat(filter.MaxPrice, 'f', -1, 64))
	}
	if filter.Guests > 0 {
		query.Set("guests", strconv.Itoa(filter.Guests))
	}

	var properties []models.Property
	if err := p.c.Get(ctx, "/properties", query, &properties); err != nil {
		return nil, err
	}
	return properties, nil
}

// Get fetches a single property by id.
func (p Properties) Get(ctx context.Context, id string) (models.Property, error) {
	var property models.Property
	if err := p.c.Get(ctx, "/properties/"+id, nil, &property); err != nil {
		return models.Property{}, err
	}
	return property, nil
}
