package sources

// regionCenter is the approximate geographic center of a region, used when a
// feed is queried by point + radius.
type regionCenter struct {
	Lat, Lng float64
}

// regionBounds is the approximate bounding box of a region, used when a feed
// is queried by rectangle.
type regionBounds struct {
	MinLat, MaxLat, MinLng, MaxLng float64
}

var regionCenters = map[string]regionCenter{
	"AL": {32.3182, -86.9023}, "AK": {64.2008, -152.4937}, "AZ": {34.0489, -111.0937},
	"AR": {34.7465, -92.2896}, "CA": {36.7783, -119.4179}, "CO": {39.5501, -105.7821},
	"CT": {41.6032, -73.0877}, "DE": {39.1582, -75.5244}, "FL": {27.6648, -81.5158},
	"GA": {32.1656, -82.9001}, "HI": {20.7967, -156.3319}, "ID": {44.0682, -114.742},
	"IL": {40.6331, -89.3985}, "IN": {39.7684, -86.1581}, "IA": {41.878, -93.0977},
	"KS": {38.5266, -98.7265}, "KY": {37.8393, -84.27}, "LA": {30.9843, -91.9623},
	"ME": {45.2538, -69.4455}, "MD": {39.0458, -76.6413}, "MA": {42.4072, -71.3824},
	"MI": {44.3148, -85.6024}, "MN": {46.7296, -94.6859}, "MS": {32.3547, -89.3985},
	"MO": {37.9643, -91.8318}, "MT": {46.8797, -110.3626}, "NE": {41.4925, -99.9018},
	"NV": {38.8026, -116.4194}, "NH": {43.1939, -71.5724}, "NJ": {40.0583, -74.4057},
	"NM": {34.5199, -105.8701}, "NY": {42.1657, -74.9481}, "NC": {35.7596, -79.0193},
	"ND": {47.5515, -101.002}, "OH": {40.4173, -82.9071}, "OK": {35.4676, -97.5164},
	"OR": {43.8041, -120.5542}, "PA": {41.2033, -77.1945}, "RI": {41.5801, -71.4774},
	"SC": {33.8361, -81.1637}, "SD": {43.9695, -99.9018}, "TN": {35.5175, -86.5804},
	"TX": {31.9686, -99.9018}, "UT": {39.321, -111.0937}, "VT": {44.5588, -72.5778},
	"VA": {37.4316, -78.6569}, "WA": {47.7511, -120.7401}, "WV": {38.5976, -80.4549},
	"WI": {43.7844, -88.7879}, "WY": {43.076, -107.2903},
}

var regionBoundsTable = map[string]regionBounds{
	"AL": {30.2, 35.0, -88.5, -84.9}, "AK": {51.2, 71.5, -180.0, -130.0},
	"AZ": {31.3, 37.0, -114.8, -109.0}, "AR": {33.0, 36.5, -94.6, -89.6},
	"CA": {32.5, 42.0, -124.5, -114.1}, "CO": {37.0, 41.0, -109.1, -102.0},
	"CT": {41.0, 42.1, -73.7, -71.8}, "DE": {38.5, 39.8, -75.8, -75.0},
	"FL": {24.5, 31.0, -87.6, -80.0}, "GA": {30.4, 35.0, -85.6, -80.8},
	"HI": {18.9, 22.2, -160.2, -154.8}, "ID": {42.0, 49.0, -117.2, -111.0},
	"IL": {37.0, 42.5, -91.5, -87.5}, "IN": {37.8, 41.8, -88.1, -84.8},
	"IA": {40.4, 43.5, -96.6, -90.1}, "KS": {37.0, 40.0, -102.1, -94.6},
	"KY": {36.5, 39.1, -89.6, -82.0}, "LA": {29.0, 33.0, -94.0, -89.0},
	"ME": {43.1, 47.5, -71.1, -66.9}, "MD": {37.9, 39.7, -79.5, -75.0},
	"MA": {41.2, 42.9, -73.5, -69.9}, "MI": {41.7, 48.3, -90.4, -82.4},
	"MN": {43.5, 49.4, -97.2, -89.5}, "MS": {30.2, 35.0, -91.7, -88.1},
	"MO": {36.0, 40.6, -95.8, -89.1}, "MT": {44.4, 49.0, -116.1, -104.0},
	"NE": {40.0, 43.0, -104.1, -95.3}, "NV": {35.0, 42.0, -120.0, -114.0},
	"NH": {42.7, 45.3, -72.6, -70.7}, "NJ": {38.9, 41.4, -75.6, -74.0},
	"NM": {31.3, 37.0, -109.1, -103.0}, "NY": {40.5, 45.0, -79.8, -71.8},
	"NC": {33.8, 36.6, -84.3, -75.5}, "ND": {45.9, 49.0, -104.1, -96.6},
	"OH": {38.4, 42.0, -84.8, -80.5}, "OK": {33.6, 37.0, -103.0, -94.4},
	"OR": {42.0, 46.3, -124.6, -116.5}, "PA": {39.7, 42.3, -80.5, -74.7},
	"RI": {41.1, 42.0, -71.9, -71.1}, "SC": {32.0, 35.2, -83.4, -78.5},
	"SD": {42.5, 45.9, -104.1, -96.4}, "TN": {35.0, 36.7, -90.3, -81.6},
	"TX": {25.8, 36.5, -106.6, -93.5}, "UT": {37.0, 42.0, -114.1, -109.0},
	"VT": {42.7, 45.0, -73.4, -71.5}, "VA": {36.5, 39.5, -83.7, -75.2},
	"WA": {45.5, 49.0, -124.8, -116.9}, "WV": {37.2, 40.6, -82.6, -77.7},
	"WI": {42.5, 47.1, -92.9, -86.8}, "WY": {41.0, 45.0, -111.1, -104.1},
}
