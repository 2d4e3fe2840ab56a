/*
Package dice implements the textual "dice notation" used for user values on a
character sheet.

A value is either a plain integer ("12", "-3") or a sum of terms separated by
explicit signs, where each term is a dice term ("2d6") or a signed integer
bonus:

	v, err := dice.Parse("2d4+2d6+3")
	// v.Dice.Dice  == [{2 4 []} {2 6 []}]
	// v.Dice.Bonus == 3

Render is the best-effort inverse of Parse. It is not strict: a dice term with a
negative amount is not preceded by a joiner, since the sign is carried by the
amount itself, so some inputs do not round-trip byte for byte.
*/
package dice
