package rentalsunited

import (
	"encoding/xml"
	"sort"
	"strconv"
	"strings"
)

// request builds a Rentals United request document. Every document carries
// an Authentication block with the account credentials, followed by the
// call-specific fields as flat elements in sorted order.
func (a *Adapter) request(root string, fields map[string]string) string {
	var b strings.Builder
	b.WriteString("<" + root + ">")
	b.WriteString("<Authentication>")
	b.WriteString("<UserName>" + escape(a.username) + "</UserName>")
	b.WriteString("<Password>" + escape(a.password) + "</Password>")
	b.WriteString("</Authentication>")
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("<" + k + ">" + escape(fields[k]) + "</" + k + ">")
	}
	b.WriteString("</" + root + ">")
	return b.String()
}

func escape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}

func itoa(n int) string { return strconv.Itoa(n) }
