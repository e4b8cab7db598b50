package models

// OperatingHours is the open/close pair of one weekday (0=Sunday).
// A nil OpenTime means the restaurant is closed that day.
type OperatingHours struct {
	DayOfWeek int     `json:"dayOfWeek" yaml:"day_of_week" validate:"min=0,max=6"`
	OpenTime  *string `json:"openTime" yaml:"open_time"`
	CloseTime *string `json:"closeTime" yaml:"close_time"`
}

// IsClosed reports whether no opening time is set.
func (h OperatingHours) IsClosed() bool {
	return h.OpenTime == nil || *h.OpenTime == ""
}

// DaySlots lists the bookable slot start times of one weekday.
type DaySlots struct {
	DayOfWeek int      `json:"dayOfWeek"`
	Times     []string `json:"times"`
}

type TableConfiguration struct {
	Size     int `json:"size" yaml:"size" validate:"gt=0"`
	Quantity int `json:"quantity" yaml:"quantity" validate:"gt=0"`
}

// Review is a diner review attached to restaurant details.
type Review struct {
	ID           int64   `json:"id"`
	CustomerName string  `json:"customerName,omitempty"`
	Rating       float64 `json:"rating"`
	ReviewText   string  `json:"reviewText,omitempty"`
}

// RestaurantDetails is the payload of GET /api/home/restaurants/{id}.
type RestaurantDetails struct {
	ID                  int64                `json:"id"`
	Name                string               `json:"name"`
	CuisineType         string               `json:"cuisineType"`
	CostRating          int                  `json:"costRating"`
	Description         string               `json:"description"`
	ContactPhone        string               `json:"contactPhone"`
	AddressLine         string               `json:"addressLine"`
	City                string               `json:"city"`
	State               string               `json:"state"`
	ZipCode             string               `json:"zipCode"`
	Country             string               `json:"country"`
	Longitude           float64              `json:"longitude"`
	Latitude            float64              `json:"latitude"`
	MainPhotoURL        string               `json:"mainPhotoUrl"`
	AdditionalPhotoURLs []string             `json:"additionalPhotoUrls"`
	TableConfigurations []TableConfiguration `json:"tableConfigurations"`
	OperatingHours      []OperatingHours     `json:"operatingHours"`
	TimeSlots           []DaySlots           `json:"timeSlots"`
	Approved            bool                 `json:"approved"`
	BookingCount        int                  `json:"bookingCount"`
	Reviews             []Review             `json:"reviews"`
	AverageRating       float64              `json:"averageRating"`
	ReviewCount         int                  `json:"reviewCount"`
}

// RestaurantSearchRequest is the body of POST /api/home/restaurants/search.
type RestaurantSearchRequest struct {
	Date       string  `json:"date"`
	Time       string  `json:"time"`
	PartySize  int     `json:"partySize"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	SearchText string  `json:"searchText,omitempty"`
}

// NearbyRestaurantRequest is the body of POST /api/home/restaurants/nearby.
type NearbyRestaurantRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    int     `json:"radius,omitempty"`
}

type RestaurantSearchDetails struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	CuisineType        string   `json:"cuisineType"`
	CostRating         int      `json:"costRating"`
	Address            string   `json:"address"`
	MainPhotoURL       string   `json:"mainPhotoUrl"`
	Distance           *float64 `json:"distance"`
	BookingCount       *int     `json:"bookingCount"`
	AvailableTimeSlots []string `json:"availableTimeSlots"`
	Approved           *bool    `json:"approved"`
	AvgRating          float64  `json:"avgRating"`
}

type RestaurantSearchResponse struct {
	Count                   int                       `json:"count"`
	RestaurantSearchDetails []RestaurantSearchDetails `json:"restaurantSearchDetails"`
}

// RestaurantDetailsRequest holds the basic listing fields a manager edits.
type RestaurantDetailsRequest struct {
	Name         string `json:"name" yaml:"name"`
	CuisineType  string `json:"cuisineType" yaml:"cuisine_type"`
	CostRating   int    `json:"costRating" yaml:"cost_rating"`
	Description  string `json:"description" yaml:"description"`
	ContactPhone string `json:"contactPhone" yaml:"contact_phone"`
	AddressLine  string `json:"addressLine" yaml:"address_line"`
	City         string `json:"city" yaml:"city"`
	State        string `json:"state" yaml:"state"`
	ZipCode      string `json:"zipCode" yaml:"zip_code"`
	Country      string `json:"country" yaml:"country"`
}

// RestaurantRequest is the body of the manager create/update endpoints.
type RestaurantRequest struct {
	BasicDetails        RestaurantDetailsRequest `json:"basicDetails"`
	TableConfigurations []TableConfiguration     `json:"tableConfigurations"`
	OperatingHours      []OperatingHours         `json:"operatingHours"`
	TimeSlots           []DaySlots               `json:"timeSlots"`
	MainPhotoURL        string                   `json:"mainPhotoUrl"`
	AdditionalPhotoURLs []string                 `json:"additionalPhotoUrls,omitempty"`
}

// RestaurantSummary is returned after a listing is created or updated.
type RestaurantSummary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Approved bool   `json:"approved"`
}

// ReservationAnalytics is the admin summary of the current month.
type ReservationAnalytics struct {
	TotalReservations         int                 `json:"totalReservations"`
	AverageReservationsPerDay float64             `json:"averageReservationsPerDay"`
	MostPopularRestaurants    []RestaurantSummary `json:"mostPopularRestaurants"`
	StartDate                 string              `json:"startDate"`
	EndDate                   string              `json:"endDate"`
}
