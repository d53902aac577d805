// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package ingest

// FieldKey names one of the six semantic traffic-source fields.
type FieldKey string

// Semantic field keys, in canonical column order.
const (
	FieldSource          FieldKey = "source"
	FieldViews           FieldKey = "views"
	FieldWatchTimeHours  FieldKey = "watch_time_hours"
	FieldAvgViewDuration FieldKey = "avg_view_duration"
	FieldImpressions     FieldKey = "impressions"
	FieldCTR             FieldKey = "ctr"
)

// requiredFields lists every field a mapping must resolve. Detection fails
// outright when any of them has no matching header.
var requiredFields = [6]FieldKey{
	FieldSource,
	FieldViews,
	FieldWatchTimeHours,
	FieldAvgViewDuration,
	FieldImpressions,
	FieldCTR,
}

// headerAliases maps each semantic field to the header spellings observed in
// real exports, lower-cased. Studio exports localize headers, so both the
// English and Russian variants are listed, plus the abbreviated forms some
// export versions use.
var headerAliases = map[FieldKey][]string{
	FieldSource: {
		"traffic source",
		"source",
		"источник трафика",
	},
	FieldViews: {
		"views",
		"просмотры",
	},
	FieldWatchTimeHours: {
		"watch time (hours)",
		"watch time",
		"время просмотра",
		"время просмотра (в часах)",
	},
	FieldAvgViewDuration: {
		"average view duration",
		"avg duration",
		"средняя длительность просмотра",
	},
	FieldImpressions: {
		"impressions",
		"показы",
	},
	FieldCTR: {
		"impressions click-through rate",
		"impressions click-through rate (%)",
		"ctr",
		"показатель кликабельности показов",
	},
}
