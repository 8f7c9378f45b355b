package game

// DesiredPosition returns the cell one step from origin in the direction of
// move. Non-directional moves return origin. The result may be off the board.
func DesiredPosition(origin Position, move Move) Position {
	p := origin
	switch move {
	case MoveUp:
		p.Y--
	case MoveDown:
		p.Y++
	case MoveLeft:
		p.X--
	case MoveRight:
		p.X++
	}
	return p
}

// OriginPosition is the inverse of DesiredPosition: the cell an entity must
// have left to arrive at dest by taking move.
func OriginPosition(dest Position, move Move) Position {
	p := dest
	switch move {
	case MoveUp:
		p.Y++
	case MoveDown:
		p.Y--
	case MoveLeft:
		p.X++
	case MoveRight:
		p.X--
	}
	return p
}

// IsOutOfBounds reports whether p lies outside a size x size board.
func IsOutOfBounds(p Position, size int) bool {
	return p.X < 0 || p.Y < 0 || p.X >= size || p.Y >= size
}
