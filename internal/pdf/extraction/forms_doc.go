// Package extraction reads and writes AcroForm field values.
package extraction

/*
AcroForm field handling

Reading

The document catalog's /AcroForm dictionary lists the root fields in
/Fields. Every entry of that array becomes one Field record keyed by its
partial name /T:

  - T   partial field name (synthesised as field_<index> when missing)
  - V   current value; text strings, names (check boxes) or arrays of
        strings (multi-select choices, joined with ", ")
  - TU  alternate name shown to users, used as the field label
  - Rect widget rectangle; fields whose widgets live in /Kids take the
        first kid's rectangle
  - FT  field type, inherited through /Parent (Btn is refined through the
        radio and pushbutton bits of /Ff)

Strings starting with the UTF-16BE byte order mark are decoded as UTF-16,
everything else as ISO-8859-1. A document without /AcroForm or without
/Fields has no field data at all, which is reported as a nil Fields value
rather than an empty one.

Writing

Write-back sets /NeedAppearances true on the AcroForm (creating the
dictionary when the catalog has none) so viewers rebuild field appearances
from the new values. Values are assigned per page: every widget annotation
in the page's /Annots is resolved to its terminal field (the widget itself
or the first /Parent carrying a non-empty /T) and the field's /V is
replaced when the name is in the value map. A root field without /T is
found by its position in /Fields, so field_<index> names are writable too. A page is updated all or nothing; a page that
fails to resolve keeps its original objects and the failure is reported in
its PageResult.
*/
