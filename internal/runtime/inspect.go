package runtime

import (
	"strconv"
	"strings"
)

// Inspect formats a value for display at a prompt. Strings print raw at the
// top level and quoted inside objects; objects print their properties,
// functions print as [Function: name] and repeated references as [Circular].
func Inspect(v Value) string {
	if s, ok := v.(StringVal); ok {
		return string(s)
	}
	var b strings.Builder
	inspectInto(&b, v, map[*ObjectVal]bool{})
	return b.String()
}

func inspectInto(b *strings.Builder, v Value, seen map[*ObjectVal]bool) {
	switch x := v.(type) {
	case StringVal:
		b.WriteString(quoteSingle(string(x)))
	case *ObjectVal:
		inspectObject(b, x, seen)
	default:
		b.WriteString(v.String())
	}
}

func inspectObject(b *strings.Builder, o *ObjectVal, seen map[*ObjectVal]bool) {
	if seen[o] {
		b.WriteString("[Circular]")
		return
	}
	seen[o] = true
	defer delete(seen, o)

	var parts []string
	keys := o.Keys()
	if o.IsArray() {
		n := o.Len()
		for i := range n {
			var sb strings.Builder
			inspectInto(&sb, o.GetField(strconv.Itoa(i)), seen)
			parts = append(parts, sb.String())
		}
		// extra named properties follow the elements
		filtered := keys[:0]
		for _, k := range keys {
			if idx, ok := arrayIndex(k); (ok && idx < n) || k == "length" {
				continue
			}
			filtered = append(filtered, k)
		}
		keys = filtered
	}
	for _, k := range keys {
		var sb strings.Builder
		sb.WriteString(inspectKey(k))
		sb.WriteString(": ")
		inspectInto(&sb, o.GetField(k), seen)
		parts = append(parts, sb.String())
	}

	var prefix string
	if o.Fn != nil {
		prefix = "[Function: " + o.Fn.Name + "]"
		if o.Fn.Name == "" {
			prefix = "[Function (anonymous)]"
		}
		if len(parts) == 0 {
			b.WriteString(prefix)
			return
		}
		prefix += " "
	}

	lb, rb := "{", "}"
	if o.IsArray() {
		lb, rb = "[", "]"
	}
	b.WriteString(prefix)
	if len(parts) == 0 {
		b.WriteString(lb + rb)
		return
	}
	b.WriteString(lb + " " + strings.Join(parts, ", ") + " " + rb)
}

// inspectKey leaves identifier-like keys bare and quotes the rest.
func inspectKey(k string) string {
	if k == "" {
		return "''"
	}
	for i := 0; i < len(k); i++ {
		c := k[i]
		isLetter := c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !isLetter && !(i > 0 && c >= '0' && c <= '9') {
			return quoteSingle(k)
		}
	}
	return k
}

func quoteSingle(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
