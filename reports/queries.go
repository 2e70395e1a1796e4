package reports

// Query is one dashboard query over the loaded schema. NeedsASIN queries
// take the product asin as $1 and are skipped when none was given.
type Query struct {
	Name        string
	Description string
	NeedsASIN   bool
	Statement   string
}

var Queries = []Query{
	{
		Name:        "top_helpful_reviews",
		Description: "5 most helpful reviews with highest rating and 5 with lowest, for one product",
		NeedsASIN:   true,
		Statement: `
(SELECT 'highest' AS side, customer_id, review_date, rating, votes, helpful
   FROM review
  WHERE asin = $1
  ORDER BY helpful DESC, rating DESC
  LIMIT 5)
UNION ALL
(SELECT 'lowest' AS side, customer_id, review_date, rating, votes, helpful
   FROM review
  WHERE asin = $1
  ORDER BY helpful DESC, rating ASC
  LIMIT 5)`,
	},
	{
		Name:        "better_ranked_similars",
		Description: "similar products with a better salesrank than the product itself",
		NeedsASIN:   true,
		Statement: `
SELECT other.asin, other.title, other.salesrank
  FROM product_similar link
  JOIN product own ON own.asin = link.asin
  JOIN product other ON other.asin = link.similar_asin
 WHERE link.asin = $1
   AND other.salesrank > 0
   AND (own.salesrank <= 0 OR other.salesrank < own.salesrank)
 ORDER BY other.salesrank`,
	},
	{
		Name:        "daily_rating_evolution",
		Description: "per-day average rating of one product",
		NeedsASIN:   true,
		Statement: `
SELECT review_date,
       AVG(rating)::float AS avg_rating,
       COUNT(*) AS reviews
  FROM review
 WHERE asin = $1
 GROUP BY review_date
 ORDER BY review_date`,
	},
	{
		Name:        "group_salesrank_leaders",
		Description: "10 best ranked products of each product group",
		Statement: `
SELECT group_name, asin, title, salesrank
  FROM (SELECT group_name, asin, title, salesrank,
               ROW_NUMBER() OVER (PARTITION BY group_name ORDER BY salesrank) AS position
          FROM product
         WHERE salesrank > 0 AND group_name IS NOT NULL) ranked
 WHERE position <= 10
 ORDER BY group_name, salesrank`,
	},
	{
		Name:        "top_helpful_products",
		Description: "10 products with the highest average helpful votes on well rated reviews",
		Statement: `
SELECT r.asin, p.title, AVG(r.helpful)::float AS avg_helpful
  FROM review r
  JOIN product p ON p.asin = r.asin
 WHERE r.rating >= 4
 GROUP BY r.asin, p.title
 ORDER BY avg_helpful DESC, r.asin
 LIMIT 10`,
	},
	{
		Name:        "top_helpful_categories",
		Description: "5 categories with the highest per-product average helpful votes on well rated reviews",
		Statement: `
SELECT c.category_id, c.name, AVG(per_product.avg_helpful)::float AS avg_helpful
  FROM (SELECT pc.category_id, r.asin, AVG(r.helpful) AS avg_helpful
          FROM review r
          JOIN product_category pc ON pc.asin = r.asin
         WHERE r.rating >= 4
         GROUP BY pc.category_id, r.asin) per_product
  JOIN category c ON c.category_id = per_product.category_id
 GROUP BY c.category_id, c.name
 ORDER BY avg_helpful DESC, c.category_id
 LIMIT 5`,
	},
	{
		Name:        "top_reviewers_per_group",
		Description: "10 customers with the most reviews in each product group",
		Statement: `
SELECT group_name, customer_id, reviews
  FROM (SELECT p.group_name, r.customer_id, COUNT(*) AS reviews,
               ROW_NUMBER() OVER (PARTITION BY p.group_name ORDER BY COUNT(*) DESC, r.customer_id) AS position
          FROM review r
          JOIN product p ON p.asin = r.asin
         WHERE p.group_name IS NOT NULL
         GROUP BY p.group_name, r.customer_id) ranked
 WHERE position <= 10
 ORDER BY group_name, reviews DESC`,
	},
}
