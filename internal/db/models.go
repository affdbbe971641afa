package db

import (
	"encoding/json"
	"time"
)

// Product is one catalog entry. The name is the display form; comparison
// always goes through the catalog package's normalized keys, never through
// string equality on this column.
type Product struct {
	ProductID   string          `gorm:"column:product_id;type:uuid;primaryKey"`
	Name        string          `gorm:"column:name;type:text;not null"`
	Brand       *string         `gorm:"column:brand;type:text"`
	Category    *string         `gorm:"column:category;type:text"`
	ImageURL    *string         `gorm:"column:image_url;type:text"`
	Price       *string         `gorm:"column:price;type:text"`
	Description *string         `gorm:"column:description;type:text"`
	Features    json.RawMessage `gorm:"column:features;type:jsonb"`
	Ingredients *string         `gorm:"column:ingredients;type:text"`
	Volume      *string         `gorm:"column:volume;type:text"`
	HowToUse    *string         `gorm:"column:how_to_use;type:text"`
	CreatedAt   time.Time       `gorm:"column:created_at;type:timestamptz;not null"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;type:timestamptz;not null"`
}

func (Product) TableName() string { return "products" }

// Video is one processed content item. Its presence marks the item as done;
// a video row is only ever written together with its reviews.
type Video struct {
	VideoID      string    `gorm:"column:video_id;type:text;primaryKey"`
	Title        string    `gorm:"column:title;type:text;not null"`
	ChannelName  string    `gorm:"column:channel_name;type:text;not null"`
	PublishedAt  time.Time `gorm:"column:published_at;type:timestamptz;not null"`
	ThumbnailURL *string   `gorm:"column:thumbnail_url;type:text"`
	Language     *string   `gorm:"column:language;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamptz;not null"`
}

func (Video) TableName() string { return "videos" }

// Review links a product to the video that mentions it.
type Review struct {
	ReviewID         string    `gorm:"column:review_id;type:uuid;primaryKey"`
	ProductID        string    `gorm:"column:product_id;type:uuid;not null;index"`
	VideoID          string    `gorm:"column:video_id;type:text;not null;index"`
	TimestampSeconds int       `gorm:"column:timestamp_seconds;type:integer;not null"`
	Sentiment        string    `gorm:"column:sentiment;type:text;not null"`
	Summary          string    `gorm:"column:summary;type:text;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;type:timestamptz;not null"`
}

func (Review) TableName() string { return "reviews" }

// ProductDetails carries the enrichment fields. Nil means the service did
// not know; the existing column value is left untouched.
type ProductDetails struct {
	Description *string
	Features    []string
	Ingredients *string
	Volume      *string
	HowToUse    *string
}
