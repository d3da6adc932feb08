package discovery

import "strings"

// ParseTXT parses raw "key=value" TXT record strings into a map.
func ParseTXT(records []string) map[string]string {
	result := make(map[string]string, len(records))
	for _, record := range records {
		if idx := strings.IndexByte(record, '='); idx > 0 {
			result[record[:idx]] = record[idx+1:]
		}
	}
	return result
}

// ParseTXTRecord parses raw TXT records into a TXTRecord, pulling out the
// "Name" and "UniqueIdentifier" keys observed on MRP advertisements.
func ParseTXTRecord(records []string) TXTRecord {
	raw := ParseTXT(records)
	return TXTRecord{
		Name:             raw["Name"],
		UniqueIdentifier: raw["UniqueIdentifier"],
		Raw:              raw,
	}
}
