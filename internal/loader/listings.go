package loader

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rentrisk/internal/model"
	"github.com/sells-group/rentrisk/internal/source"
)

// ListingColumns names the listing columns in a source. Empty fields fall
// back to the Inside Airbnb header names.
type ListingColumns struct {
	ID           string `yaml:"id"`
	Neighborhood string `yaml:"neighbourhood"`
	RoomType     string `yaml:"room_type"`
	Price        string `yaml:"price"`
}

// LoadListings reads and cleans a listings table. Rows with a missing or
// unparseable price, an empty room type, or the "Hotel room" room type are
// dropped. A missing neighbourhood, room_type, or price column is a
// DataLoadError.
func LoadListings(ctx context.Context, src source.Source, cols ListingColumns) (*model.Listings, error) {
	stream, err := src.Open(ctx)
	if err != nil {
		return nil, NewDataLoadError(src.Name(), err)
	}

	idIdx := source.ColumnIndex(stream.Header, cols.ID, "id")
	nbIdx := source.ColumnIndex(stream.Header, cols.Neighborhood, "neighbourhood", "neighborhood")
	rtIdx := source.ColumnIndex(stream.Header, cols.RoomType, "room_type")
	priceIdx := source.ColumnIndex(stream.Header, cols.Price, "price")

	var missing []string
	if nbIdx < 0 {
		missing = append(missing, "neighbourhood")
	}
	if rtIdx < 0 {
		missing = append(missing, "room_type")
	}
	if priceIdx < 0 {
		missing = append(missing, "price")
	}
	if len(missing) > 0 {
		_ = stream.Each(func([]string) {})
		return nil, NewDataLoadError(src.Name(),
			eris.Errorf("loader: missing required columns: %s", strings.Join(missing, ", ")))
	}

	var (
		rows       []model.Listing
		badPrice   int
		hotelRooms int
		noRoomType int
	)
	err = stream.Each(func(row []string) {
		price, perr := ParsePrice(source.Cell(row, priceIdx))
		if perr != nil {
			badPrice++
			return
		}
		roomType := source.Cell(row, rtIdx)
		switch roomType {
		case "":
			noRoomType++
			return
		case model.HotelRoom:
			hotelRooms++
			return
		}
		rows = append(rows, model.Listing{
			ID:           source.Cell(row, idIdx),
			Neighborhood: source.Cell(row, nbIdx),
			RoomType:     roomType,
			Price:        price,
		})
	})
	if err != nil {
		return nil, NewDataLoadError(src.Name(), err)
	}

	dropped := badPrice + hotelRooms + noRoomType
	zap.L().Info("loader: listings loaded",
		zap.String("source", src.Name()),
		zap.Int("rows", len(rows)),
		zap.Int("dropped_price", badPrice),
		zap.Int("dropped_hotel_room", hotelRooms),
		zap.Int("dropped_room_type", noRoomType),
	)

	return model.NewListings(rows, dropped), nil
}
