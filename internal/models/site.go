package models

// StoreInfo is the public profile of the shop, loaded from config.toml.
type StoreInfo struct {
	Name         string   `json:"name"`
	Tagline      string   `json:"tagline"`
	Address      string   `json:"address"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email"`
	Whatsapp     string   `json:"whatsapp"`
	OpeningHours string   `json:"openingHours" mapstructure:"opening_hours"`
	WorkingDays  []string `json:"workingDays" mapstructure:"working_days"`
	MapLink      string   `json:"mapLink" mapstructure:"map_link"`
	Socials      Socials  `json:"socials"`
}

type Socials struct {
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	Twitter   string `json:"twitter"`
	Linkedin  string `json:"linkedin"`
}
