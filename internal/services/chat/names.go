package chat

import "github.com/kwhittier/lobbyhub/internal/dependencies/random"

var nameAdjectives = []string{
	"Happy", "Sad", "Brave", "Silly", "Clever", "Creative", "Curious", "Eager",
	"Faithful", "Fancy", "Fierce", "Friendly", "Funny", "Generous", "Gentle",
	"Grateful", "Great", "Helpful", "Honest", "Humorous", "Innocent",
	"Intelligent", "Jolly", "Joyful", "Kind", "Lovely", "Lucky", "Magical",
	"Merry", "Mighty", "Modest", "Neat", "Nifty", "Noble", "Optimistic",
	"Outgoing", "Patient", "Peaceful", "Perfect", "Polite", "Proud", "Quirky",
	"Quick", "Quiet", "Radiant", "Rational", "Reliable", "Respectful",
	"Romantic", "Sassy", "Savvy", "Scholarly", "Selfless", "Sensible",
	"Sincere", "Skilled", "Smart", "Smooth", "Social", "Spirited", "Sporty",
	"Strong", "Stunning", "Super", "Sweet", "Talented", "Thoughtful",
	"Thrifty", "Tidy", "Tough", "Trustworthy", "Upbeat", "Valiant", "Vibrant",
	"Victorious", "Vigorous", "Virtuous", "Vital", "Warm", "Willing", "Wise",
	"Witty", "Wonderful", "Worthy", "Young", "Zealous",
}

var nameNouns = []string{
	"Dog", "Cat", "Bird", "Tree", "House", "Car", "Bike", "Boat", "Bridge",
	"Book", "Chair", "City", "Computer", "Cookie", "Country", "Desk",
	"Doctor", "Door", "Dream", "Earth", "Engineer", "Flower", "Friend",
	"Fruit", "Garden", "Guitar", "Hat", "Heart", "Horse", "Island", "Jacket",
	"Key", "Kitten", "Laptop", "Lawyer", "Leaf", "Library", "Light", "Love",
	"Man", "Memory", "Money", "Moon", "Mountain", "Music", "Ocean", "Office",
	"Painting", "Piano", "Pizza", "Planet", "Queen", "Rabbit", "Rain",
	"River", "Rock", "Room", "Sandwich", "Sea", "Ship", "Shoe", "Sky",
	"Smile", "Snow", "Song", "Soul", "Star", "Sun", "Teacher", "Time",
	"Train", "Water", "Wave", "Woman", "World", "Yoga", "Zebra", "Zoo",
}

// RandomName builds a display name like "BraveKitten" for users whose
// requested name is already taken.
func RandomName(rnd random.Random) string {
	adjective := nameAdjectives[rnd.Intn(len(nameAdjectives))]
	noun := nameNouns[rnd.Intn(len(nameNouns))]
	return adjective + noun
}
