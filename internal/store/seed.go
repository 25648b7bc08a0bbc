package store

import "github.com/vyrodovalexey/shopapi/internal/model"

// SampleItems returns the six products loaded at startup. A fresh slice is
// returned on every call.
func SampleItems() []SampleItem {
	return []SampleItem{
		sample("MacBook Pro M3", "Apple의 최신 MacBook Pro with M3 chip", 2500000, "전자제품",
			"https://images.unsplash.com/photo-1541807084-5c52b6b3adef?w=400", 5, 4.8,
			"노트북", "Apple", "고성능"),
		sample("Nike Air Max 270", "편안한 일상용 운동화", 180000, "신발",
			"https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=400", 12, 4.5,
			"운동화", "Nike", "편안함"),
		sample("Samsung Galaxy S24", "최신 Android 플래그십 스마트폰", 1200000, "전자제품",
			"https://images.unsplash.com/photo-1511707171634-5f897ff02aa9?w=400", 8, 4.6,
			"스마트폰", "Samsung", "Android"),
		sample("Levi's 501 Original Jeans", "클래식한 디자인의 데님 청바지", 120000, "의류",
			"https://images.unsplash.com/photo-1542272604-787c3835535d?w=400", 15, 4.3,
			"청바지", "Levi's", "클래식"),
		sample("Starbucks Americano", "진한 에스프레소의 깊은 맛", 4500, "음료",
			"https://images.unsplash.com/photo-1509042239860-f550ce710b93?w=400", 50, 4.2,
			"커피", "Starbucks", "아메리카노"),
		sample("Sony WH-1000XM5", "최고 수준의 노이즈 캔슬링 헤드폰", 450000, "전자제품",
			"https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=400", 7, 4.9,
			"헤드폰", "Sony", "노이즈캔슬링"),
	}
}

func sample(
	name, description string,
	price float64,
	category, imageURL string,
	stock int,
	rating float64,
	tags ...string,
) SampleItem {
	return SampleItem{
		Draft: model.ItemDraft{
			Name:        name,
			Description: &description,
			Price:       price,
			IsAvailable: true,
			Category:    category,
			ImageURL:    &imageURL,
			StockCount:  stock,
			Tags:        tags,
		},
		Rating: rating,
	}
}
