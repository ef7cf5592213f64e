// Package ruling models CBP ruling records returned by the rulings search API
// and flattens them into fixed-width CSV rows.
//
// A search response looks like:
//
//	{"totalHits": 216170, "rulings": [{"id": 1, "rulingNumber": "N123456", ...}, ...]}
//
// NormalizePage turns one such body into a Page holding the column header and
// one row per ruling. Scalar fields that are missing or null become empty
// strings, list fields are joined with ", ", and unknown fields are dropped, so
// every row has exactly len(Columns) values regardless of which fields a
// record carries.
//
// A body without rulings yields ErrEndOfData. A body that is not a JSON object
// with a rulings list yields a *MalformedPageError carrying the raw body.
package ruling
