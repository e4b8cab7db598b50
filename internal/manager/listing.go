// Package manager covers the restaurant-manager and admin flows.
package manager

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"booktable/internal/models"
	"booktable/internal/slots"
)

var ErrInvalidListing = errors.New("invalid restaurant listing")

// Listing is the editable form of a restaurant.
type Listing struct {
	Details             models.RestaurantDetailsRequest `yaml:"details"`
	TableConfigurations []models.TableConfiguration     `yaml:"tables"`
	OperatingHours      []models.OperatingHours         `yaml:"hours"`
	MainPhotoURL        string                          `yaml:"main_photo_url"`
	AdditionalPhotoURLs []string                        `yaml:"additional_photo_urls"`
}

// ListingFromDetails loads an existing restaurant into the edit form.
func ListingFromDetails(d *models.RestaurantDetails) Listing {
	return Listing{
		Details: models.RestaurantDetailsRequest{
			Name:         d.Name,
			CuisineType:  d.CuisineType,
			CostRating:   d.CostRating,
			Description:  d.Description,
			ContactPhone: d.ContactPhone,
			AddressLine:  d.AddressLine,
			City:         d.City,
			State:        d.State,
			ZipCode:      d.ZipCode,
			Country:      d.Country,
		},
		TableConfigurations: d.TableConfigurations,
		OperatingHours:      d.OperatingHours,
		MainPhotoURL:        d.MainPhotoURL,
		AdditionalPhotoURLs: d.AdditionalPhotoURLs,
	}
}

// listingInput is the trimmed listing as the validator sees it.
type listingInput struct {
	Name        string                      `validate:"required"`
	CuisineType string                      `validate:"required"`
	CostRating  int                         `validate:"min=1,max=4"`
	Tables      []models.TableConfiguration `validate:"min=1,dive"`
	Hours       []models.OperatingHours     `validate:"unique=DayOfWeek,dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

var listingMessages = map[string]string{
	"Name.required":        "name is required",
	"CuisineType.required": "cuisine type is required",
	"CostRating.min":       "cost rating must be between 1 and 4",
	"CostRating.max":       "cost rating must be between 1 and 4",
	"Tables.min":           "at least one table configuration is required",
	"Size.gt":              "table size and quantity must be positive",
	"Quantity.gt":          "table size and quantity must be positive",
	"Hours.unique":         "a day of week is listed twice",
	"DayOfWeek.min":        "day of week must be 0-6",
	"DayOfWeek.max":        "day of week must be 0-6",
}

// Validate checks the listing and returns the first problem found.
func (l Listing) Validate() error {
	err := validate.Struct(listingInput{
		Name:        strings.TrimSpace(l.Details.Name),
		CuisineType: strings.TrimSpace(l.Details.CuisineType),
		CostRating:  l.Details.CostRating,
		Tables:      l.TableConfigurations,
		Hours:       l.OperatingHours,
	})
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidListing, err)
	}
	first := errs[0]
	msg, ok := listingMessages[first.StructField()+"."+first.Tag()]
	if !ok {
		msg = fmt.Sprintf("%s failed %s", first.Namespace(), first.Tag())
	}
	return fmt.Errorf("%w: %s", ErrInvalidListing, msg)
}

// BuildRequest validates the listing and regenerates its time slots from
// the operating hours.
func (l Listing) BuildRequest() (models.RestaurantRequest, error) {
	if err := l.Validate(); err != nil {
		return models.RestaurantRequest{}, err
	}

	hours := make([]models.OperatingHours, len(l.OperatingHours))
	copy(hours, l.OperatingHours)
	sort.Slice(hours, func(i, j int) bool { return hours[i].DayOfWeek < hours[j].DayOfWeek })

	week, err := slots.GenerateWeek(hours)
	if err != nil {
		return models.RestaurantRequest{}, fmt.Errorf("%w: %v", ErrInvalidListing, err)
	}

	details := l.Details
	details.Name = strings.TrimSpace(details.Name)
	details.CuisineType = strings.TrimSpace(details.CuisineType)

	return models.RestaurantRequest{
		BasicDetails:        details,
		TableConfigurations: l.TableConfigurations,
		OperatingHours:      hours,
		TimeSlots:           week,
		MainPhotoURL:        l.MainPhotoURL,
		AdditionalPhotoURLs: l.AdditionalPhotoURLs,
	}, nil
}
