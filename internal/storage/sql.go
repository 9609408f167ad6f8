package storage

import (
	"database/sql"

	"github.com/akarpov/weatherbot/internal/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// scanProfile reads the profile columns (everything after chat_id) from a row.
func scanProfile(row rowScanner) (*domain.UserProfile, error) {
	var (
		language sql.NullString
		lat      sql.NullFloat64
		lon      sql.NullFloat64
		label    sql.NullString
		timezone sql.NullString
		subHour  sql.NullInt64
		subMin   sql.NullInt64
	)

	if err := row.Scan(&language, &lat, &lon, &label, &timezone, &subHour, &subMin); err != nil {
		return nil, err
	}

	profile := &domain.UserProfile{Language: language.String}
	if lat.Valid && lon.Valid {
		profile.Home = &domain.Home{
			Lat:      lat.Float64,
			Lon:      lon.Float64,
			Label:    label.String,
			Timezone: timezone.String,
		}
	}
	if subHour.Valid && subMin.Valid {
		profile.Subscription = &domain.Subscription{
			Hour:   int(subHour.Int64),
			Minute: int(subMin.Int64),
		}
	}
	return profile, nil
}

// profileArgs flattens a profile into SQL parameters following chat_id.
func profileArgs(chatID int64, profile *domain.UserProfile) []any {
	var (
		language sql.NullString
		lat      sql.NullFloat64
		lon      sql.NullFloat64
		label    sql.NullString
		timezone sql.NullString
		subHour  sql.NullInt64
		subMin   sql.NullInt64
	)

	if profile.Language != "" {
		language = sql.NullString{String: profile.Language, Valid: true}
	}
	if profile.Home != nil {
		lat = sql.NullFloat64{Float64: profile.Home.Lat, Valid: true}
		lon = sql.NullFloat64{Float64: profile.Home.Lon, Valid: true}
		label = sql.NullString{String: profile.Home.Label, Valid: true}
		if profile.Home.Timezone != "" {
			timezone = sql.NullString{String: profile.Home.Timezone, Valid: true}
		}
	}
	if profile.Subscription != nil {
		subHour = sql.NullInt64{Int64: int64(profile.Subscription.Hour), Valid: true}
		subMin = sql.NullInt64{Int64: int64(profile.Subscription.Minute), Valid: true}
	}

	return []any{chatID, language, lat, lon, label, timezone, subHour, subMin}
}

// collectProfiles drains a result set whose first column is chat_id.
func collectProfiles(rows *sql.Rows) (map[int64]*domain.UserProfile, error) {
	out := make(map[int64]*domain.UserProfile)
	for rows.Next() {
		var (
			chatID   int64
			language sql.NullString
			lat      sql.NullFloat64
			lon      sql.NullFloat64
			label    sql.NullString
			timezone sql.NullString
			subHour  sql.NullInt64
			subMin   sql.NullInt64
		)
		if err := rows.Scan(&chatID, &language, &lat, &lon, &label, &timezone, &subHour, &subMin); err != nil {
			return nil, err
		}

		profile := &domain.UserProfile{Language: language.String}
		if lat.Valid && lon.Valid {
			profile.Home = &domain.Home{
				Lat:      lat.Float64,
				Lon:      lon.Float64,
				Label:    label.String,
				Timezone: timezone.String,
			}
		}
		if subHour.Valid && subMin.Valid {
			profile.Subscription = &domain.Subscription{
				Hour:   int(subHour.Int64),
				Minute: int(subMin.Int64),
			}
		}
		out[chatID] = profile
	}
	return out, rows.Err()
}
