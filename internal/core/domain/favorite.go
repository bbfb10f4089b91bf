package domain

// Favorite is a user's saved reference to a country, keyed by its cca3 code.
type Favorite struct {
	CountryCode string `json:"cca3" bson:"cca3"`
	Name        string `json:"name" bson:"name"`
	Flag        string `json:"flag" bson:"flag"`
}
