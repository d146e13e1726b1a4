// Package scraper fetches fixture lists and extracts the matches of one team.
//
// Two interchangeable strategies implement Extractor. TextExtractor scans
// loosely structured page markup for "HOME – AWAY … dd.mm.yyyy[, HH:MM]"
// shapes. APIExtractor decodes a JSON list of match records. Both apply the
// same permissive team filter and whitespace normalization, and Fallback lets
// a deployment prefer the API while degrading to the page when the API
// refuses the credentials.
package scraper
